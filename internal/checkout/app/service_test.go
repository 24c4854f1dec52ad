package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/batuhanyalcin/storefront/internal/api"
	cartapp "github.com/batuhanyalcin/storefront/internal/cart/app"
	cartdomain "github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/checkout/domain"
	"github.com/batuhanyalcin/storefront/internal/keyval/memory"
)

type fakeCatalog struct {
	mu        sync.Mutex
	snapshots map[int64]domain.Snapshot
	err       error
	calls     int
}

func (f *fakeCatalog) GetSnapshot(ctx context.Context, productID int64) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	snap, ok := f.snapshots[productID]
	if !ok {
		return domain.Snapshot{}, errors.New("unknown product")
	}
	return snap, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	err     error
	placed  [][]cartdomain.Line
	orderID int64
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeOrders) Place(ctx context.Context, lines []cartdomain.Line) (int64, string, error) {
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, "", f.err
	}
	snapshot := make([]cartdomain.Line, len(lines))
	copy(snapshot, lines)
	f.placed = append(f.placed, snapshot)
	return f.orderID, "PENDING", nil
}

func (f *fakeOrders) placedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placed)
}

type fakeSession struct {
	authed bool
}

func (f *fakeSession) IsAuthenticated() bool { return f.authed }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	cart    *cartapp.Service
	catalog *fakeCatalog
	orders  *fakeOrders
	session *fakeSession
	svc     *Service
}

func newFixture() *fixture {
	f := &fixture{
		cart:    cartapp.NewService(memory.NewHub().Open()),
		catalog: &fakeCatalog{snapshots: map[int64]domain.Snapshot{}},
		orders:  &fakeOrders{orderID: 42},
		session: &fakeSession{authed: true},
	}
	f.svc = NewService(f.cart, f.catalog, f.orders, f.session, 4, discard())
	return f
}

func TestSubmitEmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Submit(context.Background())
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if f.catalog.calls != 0 || f.orders.placedCount() != 0 {
		t.Fatal("empty cart must be rejected before any collaborator call")
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.session.authed = false
	f.cart.Add(ctx, 7, 2)

	_, err := f.svc.Submit(ctx)
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if f.catalog.calls != 0 {
		t.Fatal("auth gating must precede any network call")
	}
	if got := f.cart.Get(ctx); got.Quantity(7) != 2 {
		t.Fatalf("cart must be preserved, got %+v", got)
	}
}

func TestSubmitSuccessMatchesCartAndPrices(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cart.Add(ctx, 7, 2)
	f.cart.Add(ctx, 9, 1)
	f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10.5, Stock: 5}
	f.catalog.snapshots[9] = domain.Snapshot{ProductID: 9, Name: "Mouse", Price: 4.25, Stock: 3}

	receipt, err := f.svc.Submit(ctx)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if receipt.OrderID != 42 || receipt.Status != "PENDING" {
		t.Fatalf("unexpected receipt header: %+v", receipt)
	}
	if want := 10.5*2 + 4.25; receipt.Total != want {
		t.Fatalf("expected total %v, got %v", want, receipt.Total)
	}
	wantLines := []domain.ReceiptLine{
		{ProductID: 7, Name: "Keyboard", UnitPrice: 10.5, Quantity: 2, LineTotal: 21},
		{ProductID: 9, Name: "Mouse", UnitPrice: 4.25, Quantity: 1, LineTotal: 4.25},
	}
	if !reflect.DeepEqual(receipt.Lines, wantLines) {
		t.Fatalf("line mismatch:\n got %+v\nwant %+v", receipt.Lines, wantLines)
	}

	if f.orders.placedCount() != 1 {
		t.Fatalf("expected exactly one order, got %d", f.orders.placedCount())
	}
	wantOrder := []cartdomain.Line{{ProductID: 7, Quantity: 2}, {ProductID: 9, Quantity: 1}}
	if !reflect.DeepEqual(f.orders.placed[0], wantOrder) {
		t.Fatalf("order lines mismatch: %+v", f.orders.placed[0])
	}

	if got := f.cart.Get(ctx); !got.IsEmpty() {
		t.Fatalf("cart must be empty after success, got %+v", got)
	}
}

func TestSubmitStockConflictAbortsAtomically(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cart.Add(ctx, 7, 2)
	f.cart.Add(ctx, 9, 1)
	f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10.5, Stock: 1}
	f.catalog.snapshots[9] = domain.Snapshot{ProductID: 9, Name: "Mouse", Price: 4.25, Stock: 3}

	_, err := f.svc.Submit(ctx)

	var conflict *domain.StockConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected StockConflictError, got %v", err)
	}
	want := []domain.Conflict{{ProductID: 7, Name: "Keyboard", Requested: 2, Available: 1}}
	if !reflect.DeepEqual(conflict.Conflicts, want) {
		t.Fatalf("conflict detail mismatch: %+v", conflict.Conflicts)
	}

	if f.orders.placedCount() != 0 {
		t.Fatal("no partial order may be placed on conflict")
	}
	got := f.cart.Get(ctx)
	if got.Quantity(7) != 2 || got.Quantity(9) != 1 {
		t.Fatalf("cart must contain all original lines, got %+v", got)
	}
}

func TestSubmitExampleFromCatalogStock(t *testing.T) {
	// Cart {(7,2)}: stock 5 succeeds and empties the cart; stock 1
	// conflicts and leaves it untouched.
	t.Run("stock 5 succeeds", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		f.cart.Add(ctx, 7, 2)
		f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10, Stock: 5}

		if _, err := f.svc.Submit(ctx); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		if got := f.cart.Get(ctx); !got.IsEmpty() {
			t.Fatalf("expected empty cart, got %+v", got)
		}
	})

	t.Run("stock 1 conflicts", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		f.cart.Add(ctx, 7, 2)
		f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10, Stock: 1}

		_, err := f.svc.Submit(ctx)
		var conflict *domain.StockConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected StockConflictError, got %v", err)
		}
		if got := f.cart.Get(ctx); got.Quantity(7) != 2 {
			t.Fatalf("expected cart unchanged, got %+v", got)
		}
	})
}

func TestSubmitAuthExpiredMidFlowThenRetryAfterRelogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cart.Add(ctx, 7, 2)
	f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10, Stock: 5}

	// The order collaborator rejects the stale credential mid-flow. In
	// the real wiring the API client flips the gate to Anonymous before
	// the error surfaces; the fake mirrors that afterwards.
	f.orders.err = api.ErrAuthExpired

	_, err := f.svc.Submit(ctx)
	if !errors.Is(err, api.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	f.session.authed = false

	if got := f.cart.Get(ctx); got.Quantity(7) != 2 {
		t.Fatalf("cart must survive auth expiry, got %+v", got)
	}
	if _, err := f.svc.Submit(ctx); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired while logged out, got %v", err)
	}

	// Re-login and resubmit the same cart.
	f.session.authed = true
	f.orders.err = nil

	receipt, err := f.svc.Submit(ctx)
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if receipt.OrderID != 42 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if got := f.cart.Get(ctx); !got.IsEmpty() {
		t.Fatalf("expected empty cart after resubmit, got %+v", got)
	}
}

func TestSubmitNetworkFailureLeavesCartIntact(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cart.Add(ctx, 7, 2)
	f.catalog.err = &api.NetworkError{Op: "GET /products/7", Err: errors.New("timeout")}

	_, err := f.svc.Submit(ctx)
	var netErr *api.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if f.orders.placedCount() != 0 {
		t.Fatal("no order may be placed after a failed reconciliation")
	}
	if got := f.cart.Get(ctx); got.Quantity(7) != 2 {
		t.Fatalf("cart must be preserved, got %+v", got)
	}
}

func TestSubmitInFlightIsSuppressed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cart.Add(ctx, 7, 2)
	f.catalog.snapshots[7] = domain.Snapshot{ProductID: 7, Name: "Keyboard", Price: 10, Stock: 5}
	f.orders.block = make(chan struct{})
	f.orders.entered = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx)
		firstDone <- err
	}()

	select {
	case <-f.orders.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submit never reached the order collaborator")
	}

	if _, err := f.svc.Submit(ctx); !errors.Is(err, ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}

	close(f.orders.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if f.orders.placedCount() != 1 {
		t.Fatalf("expected exactly one order, got %d", f.orders.placedCount())
	}
}
