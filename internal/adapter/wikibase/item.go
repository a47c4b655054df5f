package wikibase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/velov-sync/internal/domain"
)

// ErrItemNotFound is returned by GetItem for ids that do not exist.
var ErrItemNotFound = errors.New("item not found")

type entitiesResponse struct {
	Entities map[string]entity `json:"entities"`
}

type editResponse struct {
	Entity  entity `json:"entity"`
	Success int    `json:"success"`
}

// GetItem fetches the current state of an item.
func (c *Client) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	params := url.Values{
		"action": {"wbgetentities"},
		"ids":    {id},
		"props":  {"info|labels|descriptions|aliases|claims"},
	}
	var resp entitiesResponse
	if err := c.call(ctx, "get", http.MethodGet, params, true, &resp); err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}

	e, ok := resp.Entities[id]
	if !ok || e.Missing != nil {
		return nil, fmt.Errorf("get item %s: %w", id, ErrItemNotFound)
	}
	item, err := e.toDomain()
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return item, nil
}

// WriteItem creates or updates an item with one wbeditentity call and
// returns its id. Edits are spaced by the configured edit interval.
func (c *Client) WriteItem(ctx context.Context, item *domain.Item, summary string) (string, error) {
	data, err := newEditData(item)
	if err != nil {
		return "", fmt.Errorf("write item %s: %w", item.ID, err)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("write item %s: encode: %w", item.ID, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("write item %s: %w", item.ID, err)
	}

	var resp editResponse
	write := func() error {
		token, err := c.token(ctx)
		if err != nil {
			return err
		}
		params := url.Values{
			"action":  {"wbeditentity"},
			"data":    {string(payload)},
			"summary": {summary},
			"token":   {token},
		}
		if item.IsNew() {
			params.Set("new", "item")
		} else {
			params.Set("id", item.ID)
			if item.LastRevID > 0 {
				params.Set("baserevid", strconv.FormatInt(item.LastRevID, 10))
			}
		}
		if c.bot {
			params.Set("bot", "1")
		}
		if c.maxLag > 0 {
			params.Set("maxlag", strconv.Itoa(c.maxLag))
		}
		return c.call(ctx, "write", http.MethodPost, params, false, &resp)
	}

	// An expired session token is refreshed once.
	err = write()
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "badtoken" {
		c.csrfToken = ""
		err = write()
	}
	if err != nil {
		return "", fmt.Errorf("write item %s: %w", item.ID, err)
	}
	if resp.Entity.ID == "" {
		return "", fmt.Errorf("write item %s: response without entity id", item.ID)
	}

	item.MarkWritten(resp.Entity.ID, resp.Entity.LastRevID)
	return resp.Entity.ID, nil
}
