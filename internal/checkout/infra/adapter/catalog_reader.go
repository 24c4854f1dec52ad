package adapter

import (
	"context"

	"github.com/batuhanyalcin/storefront/internal/catalog"
	"github.com/batuhanyalcin/storefront/internal/checkout/domain"
)

type CatalogReader struct {
	client *catalog.Client
}

func NewCatalogReader(client *catalog.Client) *CatalogReader {
	return &CatalogReader{client: client}
}

func (r *CatalogReader) GetSnapshot(ctx context.Context, productID int64) (domain.Snapshot, error) {
	p, err := r.client.GetProduct(ctx, productID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.StockQuantity,
	}, nil
}
