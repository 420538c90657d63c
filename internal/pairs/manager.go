// Package pairs manages the configured sync pairs: a cached local list kept
// in the store, mutated optimistically and rolled back when the backend
// rejects the change.
package pairs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

// API is the slice of the SDK the manager needs.
type API interface {
	List(ctx context.Context) ([]cwsdk.Pair, error)
	Create(ctx context.Context, pair *cwsdk.Pair) (*cwsdk.Pair, error)
	Update(ctx context.Context, pair *cwsdk.Pair) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, order []string) error
}

// Manager owns the pair list lifecycle.
type Manager struct {
	mu    sync.Mutex
	api   API
	store *store.Store
}

// NewManager creates a Manager publishing into st.
func NewManager(api API, st *store.Store) *Manager {
	return &Manager{api: api, store: st}
}

// command is one optimistic mutation: applied locally first, sent to the
// backend, and reverted locally when the backend call fails.
type command struct {
	id       uuid.UUID
	name     string
	apply    func(pairs []cwsdk.Pair) []cwsdk.Pair
	rollback []cwsdk.Pair
	send     func(ctx context.Context) error
}

func (m *Manager) run(ctx context.Context, cmd command) error {
	m.mu.Lock()
	cmd.rollback = m.store.Pairs()
	m.store.SetPairs(cmd.apply(m.store.Pairs()))
	m.mu.Unlock()

	if err := cmd.send(ctx); err != nil {
		m.mu.Lock()
		m.store.SetPairs(cmd.rollback)
		m.mu.Unlock()
		slog.Warn("pair mutation rolled back", "cmd", cmd.name, "id", cmd.id, "error", err)
		return fmt.Errorf("pairs: %s: %w", cmd.name, err)
	}
	return nil
}

// Refresh replaces the cached list from the backend.
func (m *Manager) Refresh(ctx context.Context) error {
	list, err := m.api.List(ctx)
	if err != nil {
		return fmt.Errorf("pairs: refresh: %w", err)
	}
	m.mu.Lock()
	m.store.SetPairs(list)
	m.mu.Unlock()
	return nil
}

// Create adds a pair. Creation is not optimistic: the server assigns the id,
// so the local list is only extended on success.
func (m *Manager) Create(ctx context.Context, pair *cwsdk.Pair) (*cwsdk.Pair, error) {
	created, err := m.api.Create(ctx, pair)
	if err != nil {
		return nil, fmt.Errorf("pairs: create: %w", err)
	}
	m.mu.Lock()
	m.store.SetPairs(append(m.store.Pairs(), *created))
	m.mu.Unlock()
	return created, nil
}

// Update replaces a pair in place, rolling back on backend failure.
func (m *Manager) Update(ctx context.Context, pair *cwsdk.Pair) error {
	return m.run(ctx, command{
		id:   uuid.New(),
		name: "update",
		apply: func(pairs []cwsdk.Pair) []cwsdk.Pair {
			for i := range pairs {
				if pairs[i].ID == pair.ID {
					pairs[i] = *pair
				}
			}
			return pairs
		},
		send: func(ctx context.Context) error { return m.api.Update(ctx, pair) },
	})
}

// Toggle flips a pair's enabled flag, rolling back on backend failure.
func (m *Manager) Toggle(ctx context.Context, id string, enabled bool) error {
	var updated *cwsdk.Pair
	return m.run(ctx, command{
		id:   uuid.New(),
		name: "toggle",
		apply: func(pairs []cwsdk.Pair) []cwsdk.Pair {
			for i := range pairs {
				if pairs[i].ID == id {
					pairs[i].Enabled = enabled
					p := pairs[i]
					updated = &p
				}
			}
			return pairs
		},
		send: func(ctx context.Context) error {
			if updated == nil {
				return cwsdk.ErrPairNotFound
			}
			return m.api.Update(ctx, updated)
		},
	})
}

// Delete removes a pair optimistically, restoring it on backend failure.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.run(ctx, command{
		id:   uuid.New(),
		name: "delete",
		apply: func(pairs []cwsdk.Pair) []cwsdk.Pair {
			return slices.DeleteFunc(pairs, func(p cwsdk.Pair) bool { return p.ID == id })
		},
		send: func(ctx context.Context) error { return m.api.Delete(ctx, id) },
	})
}

// Move shifts a pair up (-1) or down (+1) in display order with a local
// splice, then persists the whole order, rolling back on failure.
func (m *Manager) Move(ctx context.Context, id string, delta int) error {
	return m.run(ctx, command{
		id:   uuid.New(),
		name: "reorder",
		apply: func(pairs []cwsdk.Pair) []cwsdk.Pair {
			from := slices.IndexFunc(pairs, func(p cwsdk.Pair) bool { return p.ID == id })
			if from < 0 {
				return pairs
			}
			to := from + delta
			if to < 0 || to >= len(pairs) {
				return pairs
			}
			p := pairs[from]
			pairs = slices.Delete(pairs, from, from+1)
			pairs = slices.Insert(pairs, to, p)
			return pairs
		},
		send: func(ctx context.Context) error {
			order := make([]string, 0)
			for _, p := range m.store.Pairs() {
				order = append(order, p.ID)
			}
			return m.api.Reorder(ctx, order)
		},
	})
}
