// Package catalog reads authoritative product data from the catalog
// collaborator. Snapshots are never cached: checkout depends on the
// stockQuantity being current at fetch time.
package catalog

import (
	"context"
	"fmt"

	"github.com/batuhanyalcin/storefront/internal/api"
)

type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	ImageURL      string  `json:"imageUrl"`
}

type Client struct {
	api *api.Client
}

func NewClient(api *api.Client) *Client {
	return &Client{api: api}
}

func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	if err := c.api.Get(ctx, fmt.Sprintf("/products/%d", id), &p); err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}
