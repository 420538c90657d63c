package store

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/runstate"
)

const (
	configCacheTTL  = 45 * time.Second
	maxRetainBlocks = 500
)

// Store is the single shared dashboard state object. All mutation goes
// through named setters that publish the matching bus topic; no caller pokes
// fields directly.
type Store struct {
	mu  sync.RWMutex
	bus *Bus

	pairs      []cwsdk.Pair
	run        runstate.Snapshot
	nowPlaying *cwsdk.NowPlaying
	insights   *cwsdk.InsightsResponse
	scheduling *cwsdk.SchedulingStatus
	blocks     []logstream.Block
	streams    map[string]bool

	configCache *expirable.LRU[string, *cwsdk.AppConfig]
}

// New creates a Store publishing to bus.
func New(bus *Bus) *Store {
	return &Store{
		bus:         bus,
		streams:     make(map[string]bool),
		configCache: expirable.NewLRU[string, *cwsdk.AppConfig](4, nil, configCacheTTL),
	}
}

// Bus returns the event bus.
func (s *Store) Bus() *Bus {
	return s.bus
}

// SetPairs replaces the cached pair list.
func (s *Store) SetPairs(pairs []cwsdk.Pair) {
	s.mu.Lock()
	s.pairs = pairs
	s.mu.Unlock()
	s.bus.PairsChanged.Publish(pairs)
}

// Pairs returns a copy of the cached pair list.
func (s *Store) Pairs() []cwsdk.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cwsdk.Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// SetRun replaces the run snapshot.
func (s *Store) SetRun(snap runstate.Snapshot) {
	s.mu.Lock()
	s.run = snap
	s.mu.Unlock()
	s.bus.RunChanged.Publish(snap)
}

// Run returns the current run snapshot.
func (s *Store) Run() runstate.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}

// SetNowPlaying replaces the now-playing card state.
func (s *Store) SetNowPlaying(np *cwsdk.NowPlaying) {
	s.mu.Lock()
	s.nowPlaying = np
	s.mu.Unlock()
	if np != nil {
		s.bus.NowPlaying.Publish(*np)
	}
}

// NowPlaying returns the now-playing card state, or nil.
func (s *Store) NowPlaying() *cwsdk.NowPlaying {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowPlaying
}

// SetInsights replaces the insights panel data.
func (s *Store) SetInsights(in *cwsdk.InsightsResponse) {
	s.mu.Lock()
	s.insights = in
	s.mu.Unlock()
}

// Insights returns the insights panel data, or nil.
func (s *Store) Insights() *cwsdk.InsightsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insights
}

// SetScheduling replaces the scheduler banner state.
func (s *Store) SetScheduling(st *cwsdk.SchedulingStatus) {
	s.mu.Lock()
	s.scheduling = st
	s.mu.Unlock()
}

// Scheduling returns the scheduler banner state, or nil.
func (s *Store) Scheduling() *cwsdk.SchedulingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduling
}

// AppendBlocks retains rendered log blocks (bounded) and publishes each.
func (s *Store) AppendBlocks(blocks []logstream.Block) {
	if len(blocks) == 0 {
		return
	}
	s.mu.Lock()
	s.blocks = append(s.blocks, blocks...)
	if n := len(s.blocks); n > maxRetainBlocks {
		s.blocks = s.blocks[n-maxRetainBlocks:]
	}
	s.mu.Unlock()

	for _, b := range blocks {
		s.bus.LogBlocks.Publish(b)
	}
}

// Blocks returns a copy of the retained log blocks.
func (s *Store) Blocks() []logstream.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logstream.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// LogText renders the retained blocks as plain text, the source for the
// lossy hydration scrape.
func (s *Store) LogText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	for _, b := range s.blocks {
		sb.WriteString(b.Title)
		if b.Meta != "" {
			sb.WriteString(" ")
			sb.WriteString(b.Meta)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// SetStreamState records a backend stream's connection state.
func (s *Store) SetStreamState(stream string, connected bool) {
	s.mu.Lock()
	s.streams[stream] = connected
	s.mu.Unlock()
	s.bus.StreamState.Publish(StreamState{Stream: stream, Connected: connected})
}

// StreamStates returns a copy of the stream connection map.
func (s *Store) StreamStates() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.streams))
	for k, v := range s.streams {
		out[k] = v
	}
	return out
}

// CachedConfig returns the TTL-cached application config, or false when the
// cache is cold or expired.
func (s *Store) CachedConfig() (*cwsdk.AppConfig, bool) {
	return s.configCache.Get("config")
}

// PutConfig caches the application config and announces the save.
func (s *Store) PutConfig(cfg *cwsdk.AppConfig, saved bool) {
	s.configCache.Add("config", cfg)
	if saved {
		s.bus.ConfigSaved.Publish(ConfigSaved{Config: cfg})
	}
}
