// Package insights builds the dashboard's history summary: per-feature
// lifetime tallies, a spotlight of recent events, and the scheduler banner.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dustin/go-humanize"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/runstate"
	"github.com/crosswatch/dashd/internal/store"
)

const spotlightLimit = 6

// Source is the slice of the SDK the summarizer reads from.
type Source interface {
	Get(ctx context.Context, since int64) (*cwsdk.InsightsResponse, error)
}

// SchedSource reports the backend scheduler state for the banner.
type SchedSource interface {
	Status(ctx context.Context) (*cwsdk.SchedulingStatus, error)
}

// SpotlightItem is one recent event as shown in the spotlight strip.
type SpotlightItem struct {
	Title   string           `json:"title"`
	Feature cwsdk.FeatureKey `json:"feature"`
	Action  string           `json:"action"`
	When    string           `json:"when"`
}

// Banner is the scheduler banner state.
type Banner struct {
	Enabled   bool   `json:"enabled"`
	NextRunIn string `json:"next_run_in,omitempty"`
	LastRun   string `json:"last_run,omitempty"`
}

// Summary is the assembled insights view.
type Summary struct {
	Features  map[cwsdk.FeatureKey]cwsdk.FeatureStats `json:"features"`
	Spotlight []SpotlightItem                         `json:"spotlight"`
	Banner    Banner                                  `json:"banner"`
}

// Summarizer periodically refreshes insights into the store.
type Summarizer struct {
	source   Source
	sched    SchedSource
	store    *store.Store
	Interval time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewSummarizer creates a Summarizer publishing into st.
func NewSummarizer(source Source, sched SchedSource, st *store.Store) *Summarizer {
	return &Summarizer{
		source:   source,
		sched:    sched,
		store:    st,
		Interval: 30 * time.Second,
		now:      time.Now,
	}
}

// Refresh fetches insights and scheduler state once and stores both.
func (s *Summarizer) Refresh(ctx context.Context) error {
	resp, err := s.source.Get(ctx, 0)
	if err != nil {
		return fmt.Errorf("insights: %w", err)
	}
	s.store.SetInsights(resp)

	status, err := s.sched.Status(ctx)
	if err != nil {
		// the banner is decorative, a stale one is fine
		slog.Debug("scheduling status unavailable", "error", err)
		return nil
	}
	s.store.SetScheduling(status)
	return nil
}

// Summarize assembles the view from the store's cached responses.
func (s *Summarizer) Summarize() Summary {
	return BuildSummary(s.store.Insights(), s.store.Scheduling(), s.now())
}

// BuildSummary turns raw responses into the dashboard summary. Spotlight
// events are deduplicated on feature and title, newest first, capped at
// spotlightLimit.
func BuildSummary(resp *cwsdk.InsightsResponse, status *cwsdk.SchedulingStatus, now time.Time) Summary {
	out := Summary{Features: map[cwsdk.FeatureKey]cwsdk.FeatureStats{}}
	for _, key := range cwsdk.FeatureKeys() {
		out.Features[key] = cwsdk.FeatureStats{}
	}
	if resp != nil {
		for key, stats := range resp.Features {
			out.Features[key] = stats
		}
		seen := mapset.NewThreadUnsafeSet[string]()
		for i := len(resp.Events) - 1; i >= 0 && len(out.Spotlight) < spotlightLimit; i-- {
			ev := resp.Events[i]
			if ev.Title == "" || !seen.Add(string(ev.Feature)+"|"+ev.Title) {
				continue
			}
			out.Spotlight = append(out.Spotlight, SpotlightItem{
				Title:   ev.Title,
				Feature: ev.Feature,
				Action:  ev.Action,
				When:    humanize.RelTime(time.Unix(ev.TS, 0), now, "ago", "from now"),
			})
		}
	}
	if status != nil {
		out.Banner.Enabled = status.Enabled
		if status.NextRun > 0 {
			out.Banner.NextRunIn = humanize.RelTime(time.Unix(status.NextRun, 0), now, "ago", "from now")
		}
		if status.LastRun > 0 {
			out.Banner.LastRun = humanize.RelTime(time.Unix(status.LastRun, 0), now, "ago", "from now")
		}
	}
	return out
}

// Run refreshes on an interval and eagerly after each finished sync or
// config save, until ctx is cancelled. A saved config can change the
// schedule, so the banner is re-fetched rather than aged out.
func (s *Summarizer) Run(ctx context.Context) error {
	finished := make(chan struct{}, 1)
	nudge := func() {
		select {
		case finished <- struct{}{}:
		default:
		}
	}
	cancelDone := s.store.Bus().SyncComplete.Subscribe(func(_ runstate.FinishedRun) { nudge() })
	defer cancelDone()
	cancelSaved := s.store.Bus().ConfigSaved.Subscribe(func(_ store.ConfigSaved) { nudge() })
	defer cancelSaved()

	if err := s.Refresh(ctx); err != nil {
		slog.Warn("insights refresh failed", "error", err)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-finished:
		}
		if err := s.Refresh(ctx); err != nil {
			slog.Warn("insights refresh failed", "error", err)
		}
	}
}
