package wikibase

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/velov-sync/internal/domain"
)

// searchLimit caps the hits returned per query; only zero, one or many matter.
const searchLimit = 50

var itemIDPattern = regexp.MustCompile(`^Q[1-9][0-9]*$`)

type searchResponse struct {
	Query struct {
		Search []struct {
			NS    int    `json:"ns"`
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// Search runs a full-text search and returns hits in relevance order.
// It implements domain.Searcher.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(searchLimit)},
	}
	var resp searchResponse
	if err := c.call(ctx, "search", http.MethodGet, params, true, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		results = append(results, domain.SearchResult{ItemID: itemIDFromTitle(hit.Title)})
	}
	return results, nil
}

// itemIDFromTitle maps a page title ("Q42" or "Item:Q42") to an item id, or
// "" when the page is not an item.
func itemIDFromTitle(title string) string {
	id := strings.TrimPrefix(title, "Item:")
	if !itemIDPattern.MatchString(id) {
		return ""
	}
	return id
}
