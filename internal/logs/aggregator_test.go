package logs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPager plays back a fixed sequence of pages, one per fetch.
type scriptedPager struct {
	pages   []Page
	errs    []error
	fetches int
	cursors []string
}

func (s *scriptedPager) FetchPage(ctx context.Context, q Query, cursor string) (Page, error) {
	i := s.fetches
	s.fetches++
	s.cursors = append(s.cursors, cursor)
	if i < len(s.errs) && s.errs[i] != nil {
		return Page{}, s.errs[i]
	}
	return s.pages[i], nil
}

func testQuery() Query {
	return Query{Project: "p1", Region: "r1", Service: "svc"}
}

func TestAggregateJoinsPagesInFetchOrder(t *testing.T) {
	pager := &scriptedPager{
		pages: []Page{
			{Logs: "a", NextCursor: "t1"},
			{Logs: "b"},
		},
	}

	got, err := Aggregate(context.Background(), pager, testQuery())
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
	assert.Equal(t, 2, pager.fetches)
	assert.Equal(t, []string{"", "t1"}, pager.cursors)
}

func TestAggregateSinglePage(t *testing.T) {
	pager := &scriptedPager{pages: []Page{{Logs: "only page"}}}

	got, err := Aggregate(context.Background(), pager, testQuery())
	require.NoError(t, err)
	assert.Equal(t, "only page", got)
	assert.Equal(t, 1, pager.fetches)
}

func TestAggregateSkipsEmptyBlocks(t *testing.T) {
	pager := &scriptedPager{
		pages: []Page{
			{Logs: "a", NextCursor: "t1"},
			{Logs: "", NextCursor: "t2"},
			{Logs: "c"},
		},
	}

	got, err := Aggregate(context.Background(), pager, testQuery())
	require.NoError(t, err)
	assert.Equal(t, "a\nc", got)
	assert.Equal(t, 3, pager.fetches)
}

func TestAggregateFailureDiscardsPartialResult(t *testing.T) {
	pager := &scriptedPager{
		pages: []Page{
			{Logs: "a", NextCursor: "t1"},
			{},
		},
		errs: []error{nil, errors.New("backend unavailable")},
	}

	got, err := Aggregate(context.Background(), pager, testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log page 2")
	assert.Contains(t, err.Error(), "backend unavailable")
	// Nothing of the successfully fetched "a" leaks out.
	assert.Empty(t, got)
	assert.Equal(t, 2, pager.fetches)
}

func TestAggregateNoLogs(t *testing.T) {
	pager := &scriptedPager{pages: []Page{{}}}

	got, err := Aggregate(context.Background(), pager, testQuery())
	require.NoError(t, err)
	assert.Empty(t, got)
}
