// Package watch tracks the backend's scrobble watcher and keeps the "now
// playing" card state fresh, extrapolating playback position between polls.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

// Source is the slice of the SDK the poller reads from.
type Source interface {
	CurrentlyWatching(ctx context.Context) (*cwsdk.NowPlaying, error)
	Status(ctx context.Context) (*cwsdk.WatchStatus, error)
}

// Poller refreshes the now-playing state on an interval.
type Poller struct {
	source   Source
	store    *store.Store
	Interval time.Duration

	mu        sync.Mutex
	last      *cwsdk.NowPlaying
	fetchedAt time.Time

	now func() time.Time
}

// NewPoller creates a Poller publishing into st.
func NewPoller(source Source, st *store.Store) *Poller {
	return &Poller{
		source:   source,
		store:    st,
		Interval: 5 * time.Second,
		now:      time.Now,
	}
}

// Refresh fetches the current scrobble state once.
func (p *Poller) Refresh(ctx context.Context) error {
	np, err := p.source.CurrentlyWatching(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	p.mu.Lock()
	p.last = np
	p.fetchedAt = p.now()
	p.mu.Unlock()

	p.store.SetNowPlaying(np)
	return nil
}

// Current returns the last fetched state with the playback position
// extrapolated to the present. Returns nil when nothing is playing.
func (p *Poller) Current() *cwsdk.NowPlaying {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || !p.last.Active {
		return nil
	}
	np := Extrapolate(*p.last, p.now().Sub(p.fetchedAt))
	return &np
}

// Extrapolate advances the playback position by elapsed wall time. Paused
// sessions stay put and the position never overshoots the duration.
func Extrapolate(np cwsdk.NowPlaying, elapsed time.Duration) cwsdk.NowPlaying {
	if np.Paused || !np.Active || elapsed <= 0 {
		return np
	}
	np.PositionMS += elapsed.Milliseconds()
	if np.DurationMS > 0 && np.PositionMS > np.DurationMS {
		np.PositionMS = np.DurationMS
	}
	return np
}

// Progress is the 0..100 playback percentage for the card's bar.
func Progress(np *cwsdk.NowPlaying) int {
	if np == nil || np.DurationMS <= 0 {
		return 0
	}
	pct := int(np.PositionMS * 100 / np.DurationMS)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Run polls until ctx is cancelled. Watcher connectivity is republished as
// stream state so the card can show a disconnected badge. Opening the watch
// tab triggers an eager poll so the card never shows a stale position.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	kick := make(chan struct{}, 1)
	cancel := p.store.Bus().TabChanged.Subscribe(func(t store.TabChanged) {
		if t.Tab == "watch" {
			select {
			case kick <- struct{}{}:
			default:
			}
		}
	})
	defer cancel()

	for {
		if err := p.Refresh(ctx); err != nil {
			slog.Debug("now playing refresh failed", "error", err)
		}
		if status, err := p.source.Status(ctx); err == nil {
			p.store.SetStreamState("watch", status.Connected)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-kick:
		}
	}
}
