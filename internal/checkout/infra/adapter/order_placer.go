package adapter

import (
	"context"

	cartdomain "github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/order"
)

type OrderPlacer struct {
	client *order.Client
}

func NewOrderPlacer(client *order.Client) *OrderPlacer {
	return &OrderPlacer{client: client}
}

func (p *OrderPlacer) Place(ctx context.Context, lines []cartdomain.Line) (int64, string, error) {
	req := order.CreateRequest{
		OrderItems: make([]order.LineRequest, 0, len(lines)),
	}
	for _, l := range lines {
		req.OrderItems = append(req.OrderItems, order.LineRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		})
	}

	created, err := p.client.Create(ctx, req)
	if err != nil {
		return 0, "", err
	}
	return created.ID, created.Status, nil
}
