// Package store holds the daemon's shared dashboard state and the typed
// event bus the view modules coordinate through.
package store

import (
	"sync"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/runstate"
)

// Topic is a typed publish/subscribe channel. Handlers run synchronously on
// the publisher's goroutine; subscribers that need to block hand off
// themselves.
type Topic[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
}

// Subscribe registers fn and returns its cancel function.
func (t *Topic[T]) Subscribe(fn func(T)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish delivers v to every subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.RLock()
	handlers := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		handlers = append(handlers, fn)
	}
	t.mu.RUnlock()

	for _, fn := range handlers {
		fn(v)
	}
}

// TabChanged fires when the active dashboard tab switches.
type TabChanged struct {
	Tab string
}

// ConfigSaved fires after the application config is written back.
type ConfigSaved struct {
	Config *cwsdk.AppConfig
}

// StreamState fires when a backend stream connects or drops.
type StreamState struct {
	Stream    string // logs, summary
	Connected bool
}

// Bus is the daemon-wide set of typed topics. Payload shapes are fixed at
// compile time; there is no stringly-keyed event detail to misread.
type Bus struct {
	PairsChanged Topic[[]cwsdk.Pair]
	RunChanged   Topic[runstate.Snapshot]
	SyncComplete Topic[runstate.FinishedRun]
	ConfigSaved  Topic[ConfigSaved]
	TabChanged   Topic[TabChanged]
	StreamState  Topic[StreamState]
	LogBlocks    Topic[logstream.Block]
	NowPlaying   Topic[cwsdk.NowPlaying]
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}
