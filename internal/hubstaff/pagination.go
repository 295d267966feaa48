package hubstaff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// PageLimit is the largest page the API serves.
const PageLimit = 500

type pagination struct {
	NextPageStartID *int64 `json:"next_page_start_id"`
}

type page map[string]json.RawMessage

// fetchAllPages follows next_page_start_id until the provider stops returning one.
// Any page failure aborts the whole walk.
func (c *Client) fetchAllPages(ctx context.Context, endpoint string, query url.Values, onPage func(page) error) error {
	if query == nil {
		query = url.Values{}
	}
	seen := make(map[int64]bool)
	for {
		rawURL := endpoint
		if encoded := query.Encode(); encoded != "" {
			rawURL += "?" + encoded
		}

		var p page
		if err := c.GetJSON(ctx, rawURL, &p); err != nil {
			return err
		}
		if err := onPage(p); err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}

		next, err := nextPageStart(p)
		if err != nil {
			return fmt.Errorf("%s: %w", endpoint, err)
		}
		if next == nil {
			return nil
		}
		if seen[*next] {
			return fmt.Errorf("%s: pagination cursor %d repeated", endpoint, *next)
		}
		seen[*next] = true
		query.Set("page_start_id", strconv.FormatInt(*next, 10))
	}
}

func nextPageStart(p page) (*int64, error) {
	raw, ok := p["pagination"]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var pg pagination
	if err := json.Unmarshal(raw, &pg); err != nil {
		return nil, fmt.Errorf("malformed pagination: %w", err)
	}
	return pg.NextPageStartID, nil
}

// decodeField decodes a required top-level array field of a page.
func decodeField[T any](p page, field string) ([]T, error) {
	raw, ok := p[field]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("response missing %q", field)
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("malformed %q: %w", field, err)
	}
	return items, nil
}

// decodeOptionalField decodes a top-level array field that may be absent.
func decodeOptionalField[T any](p page, field string) ([]T, error) {
	if raw, ok := p[field]; !ok || string(raw) == "null" {
		return nil, nil
	}
	return decodeField[T](p, field)
}
