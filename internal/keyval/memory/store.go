// Package memory holds records in process memory. A single Hub stands in
// for the shared persistence layer; each Open call hands out a Store
// handle playing the role of one execution context.
package memory

import (
	"context"
	"sync"

	"github.com/batuhanyalcin/storefront/internal/keyval"
	"github.com/google/uuid"
)

type Hub struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[string][]*watcher
}

type watcher struct {
	ch     chan keyval.Event
	origin string
}

func NewHub() *Hub {
	return &Hub{
		data:     make(map[string][]byte),
		watchers: make(map[string][]*watcher),
	}
}

// Open returns a new handle with its own origin ID.
func (h *Hub) Open() *Store {
	return &Store{hub: h, origin: uuid.NewString()}
}

func (h *Hub) notify(key, origin string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, w := range h.watchers[key] {
		if w.origin == origin {
			continue
		}
		select {
		case w.ch <- keyval.Event{Key: key, Origin: origin}:
		default:
			// Watcher is not draining; drop rather than block the writer.
		}
	}
}

func (h *Hub) unsubscribe(key string, target *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ws := h.watchers[key]
	for i, w := range ws {
		if w == target {
			h.watchers[key] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	close(target.ch)
}

type Store struct {
	hub    *Hub
	origin string
}

func (s *Store) Origin() string { return s.origin }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()

	v, ok := s.hub.data[key]
	if !ok {
		return nil, keyval.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.hub.mu.Lock()
	v := make([]byte, len(value))
	copy(v, value)
	s.hub.data[key] = v
	s.hub.mu.Unlock()

	s.hub.notify(key, s.origin)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.hub.mu.Lock()
	delete(s.hub.data, key)
	s.hub.mu.Unlock()

	s.hub.notify(key, s.origin)
	return nil
}

func (s *Store) Watch(ctx context.Context, key string) (<-chan keyval.Event, error) {
	w := &watcher{ch: make(chan keyval.Event, 8), origin: s.origin}

	s.hub.mu.Lock()
	s.hub.watchers[key] = append(s.hub.watchers[key], w)
	s.hub.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.hub.unsubscribe(key, w)
	}()

	return w.ch, nil
}
