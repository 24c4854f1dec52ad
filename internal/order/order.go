// Package order talks to the order collaborator.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/batuhanyalcin/storefront/internal/api"
)

type LineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type CreateRequest struct {
	OrderItems []LineRequest `json:"orderItems"`
}

type Order struct {
	ID          int64     `json:"id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Client struct {
	api *api.Client
}

func NewClient(api *api.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (Order, error) {
	var o Order
	if err := c.api.Post(ctx, "/orders", req, &o); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

type statusUpdate struct {
	Status string `json:"status"`
}

// UpdateStatus is the admin path sharing this collaborator; not part of
// the checkout flow.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status string) (Order, error) {
	var o Order
	if err := c.api.Put(ctx, fmt.Sprintf("/orders/%d/status", id), statusUpdate{Status: status}, &o); err != nil {
		return Order{}, fmt.Errorf("update order %d status: %w", id, err)
	}
	return o, nil
}

func (c *Client) Cancel(ctx context.Context, id int64) (Order, error) {
	var o Order
	if err := c.api.Put(ctx, fmt.Sprintf("/orders/%d/cancel", id), nil, &o); err != nil {
		return Order{}, fmt.Errorf("cancel order %d: %w", id, err)
	}
	return o, nil
}
