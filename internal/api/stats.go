// ABOUTME: Admin statistics endpoints: demographics, daily usage and top queries

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Demographics returns user counts grouped by GroupByCountry or GroupByOccupation.
func (c *Client) Demographics(ctx context.Context, groupBy string) ([]GroupCount, error) {
	if groupBy != GroupByCountry && groupBy != GroupByOccupation {
		return nil, fmt.Errorf("%w: unknown demographic grouping %q", ErrValidation, groupBy)
	}
	var out []GroupCount
	query := url.Values{"group_by": {groupBy}}
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/admin/stats/demographics", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Usage returns the number of queries per day.
func (c *Client) Usage(ctx context.Context) ([]DailyCount, error) {
	var out []DailyCount
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/admin/stats/usage", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopQueries returns the most frequently asked questions; Group holds the question.
func (c *Client) TopQueries(ctx context.Context) ([]GroupCount, error) {
	var out []GroupCount
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/admin/stats/top-queries", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
