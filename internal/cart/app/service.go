package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/keyval"
)

// RecordKey is the well-known key the cart record lives under.
const RecordKey = "user_cart"

var ErrInvalidQuantity = errors.New("quantity must be positive")

// Service is the single writer of the cart record within one context.
// The whole record is rewritten on every mutation; across contexts the
// last writer wins.
type Service struct {
	store keyval.Store
}

func NewService(store keyval.Store) *Service {
	return &Service{store: store}
}

// Get never fails: a missing or corrupt record reads as an empty cart.
func (s *Service) Get(ctx context.Context) domain.Cart {
	b, err := s.store.Get(ctx, RecordKey)
	if err != nil {
		return domain.Empty()
	}
	return domain.Decode(b)
}

func (s *Service) Add(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, fmt.Errorf("add product %d: %w", productID, ErrInvalidQuantity)
	}

	cart := s.Get(ctx)
	cart.Add(productID, quantity)
	if err := s.save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// SetQuantity overwrites a line; zero or negative removes it.
func (s *Service) SetQuantity(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	cart := s.Get(ctx)
	cart.Set(productID, quantity)
	if err := s.save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *Service) Remove(ctx context.Context, productID int64) (domain.Cart, error) {
	cart := s.Get(ctx)
	cart.Remove(productID)
	if err := s.save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *Service) Clear(ctx context.Context) error {
	return s.save(ctx, domain.Empty())
}

func (s *Service) ItemCount(ctx context.Context) int {
	return s.Get(ctx).ItemCount()
}

func (s *Service) save(ctx context.Context, cart domain.Cart) error {
	if err := s.store.Set(ctx, RecordKey, cart.Encode()); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
