package app

import (
	"context"

	cartdomain "github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/checkout/domain"
)

type CartStore interface {
	Get(ctx context.Context) cartdomain.Cart
	Clear(ctx context.Context) error
}

type CatalogReader interface {
	GetSnapshot(ctx context.Context, productID int64) (domain.Snapshot, error)
}

type OrderPlacer interface {
	Place(ctx context.Context, lines []cartdomain.Line) (orderID int64, status string, err error)
}

type Session interface {
	IsAuthenticated() bool
}
