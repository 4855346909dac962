// Package logs assembles a single logically-complete log result for a Cloud
// Run service from a paged log source.
package logs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// Query names the service whose logs are being read.
type Query struct {
	Project string
	Region  string
	Service string
}

// Page is one bounded chunk of log output. NextCursor is an opaque
// continuation token; empty means no more pages.
type Page struct {
	Logs       string
	NextCursor string
}

// Pager fetches one page of logs. The cursor is empty on the first call and
// is otherwise whatever the previous page reported.
type Pager interface {
	FetchPage(ctx context.Context, q Query, cursor string) (Page, error)
}

// Aggregate drives the cursor loop against the pager until no continuation
// token remains, returning the page blocks joined with newlines in fetch
// order. Any page failure aborts the whole aggregation with no partial
// result: incomplete log output would be worse than a clear failure.
func Aggregate(ctx context.Context, pager Pager, q Query) (string, error) {
	var blocks []string
	cursor := ""

	for pageNum := 1; ; pageNum++ {
		page, err := pager.FetchPage(ctx, q, cursor)
		if err != nil {
			return "", fmt.Errorf("fetching log page %d for service %s: %w", pageNum, q.Service, err)
		}
		if page.Logs != "" {
			blocks = append(blocks, page.Logs)
		}
		if page.NextCursor == "" {
			logging.Debug("Logs", "aggregated %d page(s) for service %s", pageNum, q.Service)
			break
		}
		cursor = page.NextCursor
	}

	return strings.Join(blocks, "\n"), nil
}
