// Package sync propagates cart changes made by sibling contexts into this
// one. Two mechanisms compose: change events from the record store's
// watch channel (which already exclude this context's own writes), and a
// fixed-interval poll that re-reads the record for backends or platforms
// where notification delivery is unreliable.
//
// Consistency across contexts is last-writer-wins on the whole record;
// there is no per-line merge.
package sync

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	cartapp "github.com/batuhanyalcin/storefront/internal/cart/app"
	"github.com/batuhanyalcin/storefront/internal/cart/domain"
	"github.com/batuhanyalcin/storefront/internal/keyval"
)

const DefaultInterval = 5 * time.Second

type Synchronizer struct {
	store    keyval.Store
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	lastSeen []byte
	subs     []func(domain.Cart)
}

func New(store keyval.Store, interval time.Duration, log *slog.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Synchronizer{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// OnChange registers a listener for cart changes observed from other
// contexts (and for this context's own writes picked up by polling, so
// derived views converge either way).
func (s *Synchronizer) OnChange(fn func(domain.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Run blocks until ctx is cancelled, refreshing on change events and on
// every polling tick.
func (s *Synchronizer) Run(ctx context.Context) error {
	var events <-chan keyval.Event
	if w, ok := s.store.(keyval.Watcher); ok {
		ch, err := w.Watch(ctx, cartapp.RecordKey)
		if err != nil {
			s.log.Warn("cart watch unavailable, polling only", slog.Any("err", err))
		} else {
			events = ch
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			s.Refresh(ctx)
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh re-reads the persisted record and notifies listeners when it
// differs from the last observed state.
func (s *Synchronizer) Refresh(ctx context.Context) {
	raw, err := s.store.Get(ctx, cartapp.RecordKey)
	if err != nil && !errors.Is(err, keyval.ErrNotFound) {
		s.log.Warn("cart refresh failed", slog.Any("err", err))
		return
	}

	s.mu.Lock()
	changed := !bytes.Equal(raw, s.lastSeen)
	if changed {
		s.lastSeen = raw
	}
	subs := s.subs
	s.mu.Unlock()

	if !changed {
		return
	}

	cart := domain.Decode(raw)
	for _, fn := range subs {
		fn(cart)
	}
}
