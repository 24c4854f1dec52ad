package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/batuhanyalcin/storefront/internal/checkout/domain"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAuthRequired halts submission before any collaborator call.
	ErrAuthRequired = errors.New("authentication required")
	// ErrSubmitInFlight suppresses a re-entrant submit; the outstanding
	// attempt is neither queued behind nor duplicated.
	ErrSubmitInFlight = errors.New("checkout already in flight")
)

type Service struct {
	cart    CartStore
	catalog CatalogReader
	orders  OrderPlacer
	session Session
	log     *slog.Logger

	maxConcurrent int
	inFlight      atomic.Bool
}

func NewService(cart CartStore, catalog CatalogReader, orders OrderPlacer, session Session, maxConcurrent int, log *slog.Logger) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Service{
		cart:          cart,
		catalog:       catalog,
		orders:        orders,
		session:       session,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// Submit reconciles the current cart against authoritative stock and
// places the order. Every failure path leaves the cart exactly as it was;
// only a committed order clears it.
func (s *Service) Submit(ctx context.Context) (domain.Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.Receipt{}, ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	cart := s.cart.Get(ctx)
	if cart.IsEmpty() {
		return domain.Receipt{}, ErrEmptyCart
	}

	if !s.session.IsAuthenticated() {
		return domain.Receipt{}, ErrAuthRequired
	}

	snapshots := make([]domain.Snapshot, len(cart.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range cart.Items {
		idx := idx
		g.Go(func() error {
			line := cart.Items[idx]
			snap, err := s.catalog.GetSnapshot(gctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("reconcile product %d: %w", line.ProductID, err)
			}
			snapshots[idx] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Receipt{}, err
	}

	var conflicts []domain.Conflict
	for i, line := range cart.Items {
		if snapshots[i].Stock < line.Quantity {
			conflicts = append(conflicts, domain.Conflict{
				ProductID: line.ProductID,
				Name:      snapshots[i].Name,
				Requested: line.Quantity,
				Available: snapshots[i].Stock,
			})
		}
	}
	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ProductID < conflicts[j].ProductID })
		s.log.Info("checkout aborted on stock conflict", slog.Int("conflicts", len(conflicts)))
		return domain.Receipt{}, &domain.StockConflictError{Conflicts: conflicts}
	}

	lines := make([]domain.ReceiptLine, len(cart.Items))
	var total float64
	for i, line := range cart.Items {
		lineTotal := snapshots[i].Price * float64(line.Quantity)
		lines[i] = domain.ReceiptLine{
			ProductID: line.ProductID,
			Name:      snapshots[i].Name,
			UnitPrice: snapshots[i].Price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		}
		total += lineTotal
	}

	orderID, status, err := s.orders.Place(ctx, cart.Items)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("place order: %w", err)
	}

	if err := s.cart.Clear(ctx); err != nil {
		// The order is committed; a stale local record is recoverable and
		// will be corrected by the next write or sync cycle.
		s.log.Warn("cart not cleared after order", slog.Int64("order_id", orderID), slog.Any("err", err))
	}

	s.log.Info("order placed",
		slog.Int64("order_id", orderID),
		slog.Int("lines", len(lines)),
		slog.Float64("total", total),
	)

	return domain.Receipt{
		OrderID: orderID,
		Status:  status,
		Lines:   lines,
		Total:   total,
	}, nil
}
