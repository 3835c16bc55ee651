package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// defaultPerPage is the page size requested from list endpoints.
const defaultPerPage = 100

// GetPaginated fetches a JSON-array endpoint across all its pages and
// returns the concatenated items in API-return order. Fetching stops at
// exhaustion or once maxItems have accumulated (maxItems <= 0 means no
// cap); the final page is truncated so the caller never sees more than
// the cap and never a partial page below it.
func (c *Client) GetPaginated(ctx context.Context, endpoint string, query url.Values, maxItems int) ([]json.RawMessage, error) {
	var items []json.RawMessage

	q := url.Values{}
	for name, vals := range query {
		q[name] = vals
	}
	q.Set("per_page", strconv.Itoa(defaultPerPage))

	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))

		body, headers, err := c.do(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(body, &pageItems); err != nil {
			return nil, fmt.Errorf("decode page %d of %s: %w", page, endpoint, err)
		}

		items = append(items, pageItems...)

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("page", page).
			Int("items", len(items)).
			Msg("Fetched page")

		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		if len(pageItems) == 0 || !hasNextPage(headers) {
			return items, nil
		}
	}
}

// hasNextPage reports whether the Link header advertises another page.
// GitHub list endpoints send Link: <url>; rel="next" while more pages
// remain; absence of a rel="next" segment means exhaustion.
func hasNextPage(headers http.Header) bool {
	link := headers.Get("Link")
	if link == "" {
		return false
	}

	for _, part := range strings.Split(link, ",") {
		if strings.Contains(part, `rel="next"`) {
			return true
		}
	}
	return false
}
