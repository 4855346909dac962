package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wlhee/cloud-run-mcp/internal/gcloud"
)

// defaultPageSize bounds how many entries one gcloud invocation returns.
const defaultPageSize = 100

// GcloudPager reads Cloud Logging entries for a Cloud Run service one page at
// a time via `gcloud logging read`. The CLI has no page-token parameter, so
// the cursor is the timestamp of the oldest entry seen: each page asks for
// entries strictly older than the cursor.
type GcloudPager struct {
	Runner   gcloud.Runner
	PageSize int
}

// NewGcloudPager returns a Pager backed by the gcloud CLI.
func NewGcloudPager(runner gcloud.Runner) *GcloudPager {
	return &GcloudPager{Runner: runner, PageSize: defaultPageSize}
}

// logEntry is the subset of a Cloud Logging entry this pager renders.
type logEntry struct {
	Timestamp   string          `json:"timestamp"`
	Severity    string          `json:"severity"`
	TextPayload string          `json:"textPayload"`
	JSONPayload json.RawMessage `json:"jsonPayload"`
}

func (p *GcloudPager) FetchPage(ctx context.Context, q Query, cursor string) (Page, error) {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	filter := fmt.Sprintf(
		`resource.type="cloud_run_revision" AND resource.labels.service_name=%q AND resource.labels.location=%q`,
		q.Service, q.Region,
	)
	if cursor != "" {
		filter += fmt.Sprintf(` AND timestamp<%q`, cursor)
	}

	out, err := p.Runner.Run(ctx,
		"logging", "read", filter,
		"--project", q.Project,
		"--limit", strconv.Itoa(pageSize),
		"--order", "desc",
		"--format", "json",
	)
	if err != nil {
		return Page{}, err
	}

	var entries []logEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return Page{}, fmt.Errorf("parsing log entries: %w", err)
	}
	if len(entries) == 0 {
		return Page{}, nil
	}

	// gcloud returns newest first; render each page oldest first so the
	// joined result reads top to bottom.
	lines := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		lines = append(lines, renderEntry(entries[i]))
	}

	page := Page{Logs: strings.Join(lines, "\n")}
	if len(entries) == pageSize {
		// A full page may have more behind it; the oldest timestamp becomes
		// the next cursor. A short page is the last one.
		page.NextCursor = entries[len(entries)-1].Timestamp
	}
	return page, nil
}

func renderEntry(e logEntry) string {
	payload := e.TextPayload
	if payload == "" && len(e.JSONPayload) > 0 {
		payload = string(e.JSONPayload)
	}
	return fmt.Sprintf("%s %s %s", e.Timestamp, e.Severity, payload)
}
