package api

import (
	"context"
	"net/http"

	"github.com/avoronin/portalctl/internal/models"
)

// ListItems returns the items visible to the authenticated user.
func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	var list models.List[models.Item]
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/items/", nil, &list, true); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// CreateItem creates an item owned by the authenticated user.
func (c *Client) CreateItem(ctx context.Context, title string, description string) (models.Item, error) {
	body := struct {
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
	}{Title: title, Description: description}

	var item models.Item
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/items/", body, &item, true); err != nil {
		return models.Item{}, err
	}
	return item, nil
}
