package runstate

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

func TestOptimisticStartFloorsPercent(t *testing.T) {
	r := NewReconciler()
	r.StartOptimistic()

	snap := r.Snapshot()
	assert.True(t, snap.Running)
	assert.True(t, snap.Indeterminate)
	assert.Equal(t, percentFloor, snap.Percent)
	assert.True(t, snap.Timeline.Start)
}

func TestDriftCapsAtSixty(t *testing.T) {
	r := NewReconciler()
	base := time.Now()
	r.now = func() time.Time { return base }
	r.StartOptimistic()

	// server stays quiet well past the drift threshold
	r.now = func() time.Time { return base.Add(time.Hour) }
	for range 100 {
		r.Tick()
	}

	snap := r.Snapshot()
	assert.LessOrEqual(t, snap.Percent, percentDrift)
	assert.GreaterOrEqual(t, snap.Percent, percentFloor)
}

func TestDriftStopsOnceServerReports(t *testing.T) {
	r := NewReconciler()
	base := time.Now()
	r.now = func() time.Time { return base }
	r.StartOptimistic()

	r.Apply(&cwsdk.RunSummary{
		Running: true,
		RunID:   "r1",
		TL:      json.RawMessage(`{"start":true,"pre":true}`),
	})

	r.now = func() time.Time { return base.Add(time.Hour) }
	before := r.Snapshot().Percent
	r.Tick()
	assert.Equal(t, before, r.Snapshot().Percent)
	assert.False(t, r.Snapshot().Indeterminate)
}

func TestPercentMonotoneAndClamped(t *testing.T) {
	r := NewReconciler()
	r.StartOptimistic()

	stages := []string{
		`{"start":true}`,
		`{"start":true,"pre":true}`,
		`{"start":true,"pre":true,"post":true}`,
	}

	last := 0
	for _, tl := range stages {
		r.Apply(&cwsdk.RunSummary{Running: true, RunID: "r1", TL: json.RawMessage(tl)})
		p := r.Snapshot().Percent
		assert.GreaterOrEqual(t, p, last)
		assert.GreaterOrEqual(t, p, percentFloor) // never 0 once started
		assert.LessOrEqual(t, p, percentCeiling)  // never past ceiling before done
		last = p
	}

	r.Apply(&cwsdk.RunSummary{Running: false, RunID: "r1", TL: json.RawMessage(`{"start":true,"pre":true,"post":true,"done":true}`)})
	assert.Equal(t, 100, r.Snapshot().Percent)
}

func TestJustFinishedFiresExactlyOnce(t *testing.T) {
	r := NewReconciler()

	running := &cwsdk.RunSummary{Running: true, RunID: "r9", TL: json.RawMessage(`{"start":true,"pre":true}`)}
	finishedSum := &cwsdk.RunSummary{
		Running:  false,
		RunID:    "r9",
		ExitCode: intp(0),
		TL:       json.RawMessage(`{"start":true,"pre":true,"post":true,"done":true}`),
		Features: map[cwsdk.FeatureKey]cwsdk.FeatureStats{"watchlist": {Added: 3}},
	}

	assert.Nil(t, r.Apply(running))

	fin := r.Apply(finishedSum)
	require.NotNil(t, fin)
	assert.Equal(t, "r9", fin.RunID)
	assert.False(t, fin.NeedsHydration)
	assert.Equal(t, 3, fin.Features["watchlist"].Added)

	// polling the same finished run again must not re-fire
	assert.Nil(t, r.Apply(finishedSum))
	assert.Nil(t, r.Apply(finishedSum))
}

func TestStaleSummaryAfterOptimisticStartIsIgnored(t *testing.T) {
	r := NewReconciler()

	finished := &cwsdk.RunSummary{
		Running:  false,
		RunID:    "r1",
		ExitCode: intp(0),
		TL:       json.RawMessage(`{"start":true,"pre":true,"post":true,"done":true}`),
	}

	r.Apply(&cwsdk.RunSummary{Running: true, RunID: "r1", TL: json.RawMessage(`{"start":true}`)})
	require.NotNil(t, r.Apply(finished))

	// the user retriggers; the backend has not picked the new run up yet
	// and the poll still returns the previous run's final summary
	r.StartOptimistic()
	assert.Nil(t, r.Apply(finished))
	assert.Nil(t, r.Apply(finished))

	snap := r.Snapshot()
	assert.True(t, snap.Running, "optimistic regime must survive the stale poll")
	assert.True(t, snap.Indeterminate)
	assert.False(t, snap.Timeline.Done)
	assert.Equal(t, percentFloor, snap.Percent)
}

func TestStaleSummaryOfRunSeenAtStartupIsIgnored(t *testing.T) {
	r := NewReconciler()

	// a run that completed before this process started: observed, never fired
	old := &cwsdk.RunSummary{Running: false, RunID: "r0", Finished: true}
	assert.Nil(t, r.Apply(old))

	r.StartOptimistic()
	assert.Nil(t, r.Apply(old))
	assert.True(t, r.Snapshot().Running)
}

func TestNewRunFinishingDuringOptimisticStartStillFires(t *testing.T) {
	r := NewReconciler()

	r.Apply(&cwsdk.RunSummary{Running: true, RunID: "r1", TL: json.RawMessage(`{"start":true}`)})
	require.NotNil(t, r.Apply(&cwsdk.RunSummary{Running: false, RunID: "r1", Finished: true}))

	// the triggered run starts and completes between two polls
	r.StartOptimistic()
	fin := r.Apply(&cwsdk.RunSummary{Running: false, RunID: "r2", Finished: true})
	require.NotNil(t, fin)
	assert.Equal(t, "r2", fin.RunID)
}

func TestFinishedFiresAgainForNewRun(t *testing.T) {
	r := NewReconciler()

	finish := func(id string) *FinishedRun {
		r.Apply(&cwsdk.RunSummary{Running: true, RunID: id, TL: json.RawMessage(`{"start":true}`)})
		return r.Apply(&cwsdk.RunSummary{Running: false, RunID: id, Finished: true})
	}

	require.NotNil(t, finish("a"))
	require.NotNil(t, finish("b"))
}

func TestFinishedKeepsStartStampFromEarlierPoll(t *testing.T) {
	r := NewReconciler()
	r.Apply(&cwsdk.RunSummary{Running: true, RunID: "r1", StartedTS: 1234, TL: json.RawMessage(`{"start":true}`)})

	// the final summary omits started_ts
	fin := r.Apply(&cwsdk.RunSummary{Running: false, RunID: "r1", Finished: true})
	require.NotNil(t, fin)
	assert.Equal(t, int64(1234), fin.StartedTS)
}

func TestFinishedNeedsHydrationWhenCountsEmpty(t *testing.T) {
	r := NewReconciler()
	r.Apply(&cwsdk.RunSummary{Running: true, RunID: "r1", TL: json.RawMessage(`{"start":true}`)})

	fin := r.Apply(&cwsdk.RunSummary{
		Running:  false,
		RunID:    "r1",
		Finished: true,
		Features: map[cwsdk.FeatureKey]cwsdk.FeatureStats{"watchlist": {Items: 10}},
	})
	require.NotNil(t, fin)
	assert.True(t, fin.NeedsHydration)
}

type stubInsights struct {
	resp *cwsdk.InsightsResponse
	err  error
}

func (s *stubInsights) Get(ctx context.Context, since int64) (*cwsdk.InsightsResponse, error) {
	return s.resp, s.err
}

func TestHydrateFromInsights(t *testing.T) {
	h := &Hydrator{
		Insights: &stubInsights{resp: &cwsdk.InsightsResponse{
			Events: []cwsdk.InsightEvent{
				{TS: 100, Feature: "watchlist", Action: "add"},
				{TS: 110, Feature: "watchlist", Action: "add"},
				{TS: 120, Feature: "ratings", Action: "update"},
				{TS: 50, Feature: "history", Action: "remove"}, // before run start
			},
		}},
	}

	run := &FinishedRun{StartedTS: 90, NeedsHydration: true}
	require.True(t, h.Hydrate(context.Background(), run))
	assert.Equal(t, 2, run.Features["watchlist"].Added)
	assert.Equal(t, 1, run.Features["ratings"].Updated)
	assert.NotContains(t, run.Features, cwsdk.FeatureKey("history"))
}

func TestHydrateFallsBackToLogScrape(t *testing.T) {
	h := &Hydrator{
		Insights: &stubInsights{resp: &cwsdk.InsightsResponse{}},
		LogText:  func() string { return "[i] Done. Total added: 7, Total removed: 2" },
	}

	run := &FinishedRun{NeedsHydration: true}
	require.True(t, h.Hydrate(context.Background(), run))
	assert.Equal(t, 7, run.Features[FeatureOverall].Added)
	assert.Equal(t, 2, run.Features[FeatureOverall].Removed)
}

func TestHydrateGivesUpCleanly(t *testing.T) {
	h := &Hydrator{
		Insights: &stubInsights{resp: &cwsdk.InsightsResponse{}},
		LogText:  func() string { return "nothing useful here" },
	}
	run := &FinishedRun{NeedsHydration: true}
	assert.False(t, h.Hydrate(context.Background(), run))
	assert.Empty(t, run.Features)
}
