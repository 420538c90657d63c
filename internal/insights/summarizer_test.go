package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

type stubSource struct {
	resp *cwsdk.InsightsResponse
	err  error
}

func (s *stubSource) Get(ctx context.Context, since int64) (*cwsdk.InsightsResponse, error) {
	return s.resp, s.err
}

type stubSched struct {
	status *cwsdk.SchedulingStatus
	err    error
}

func (s *stubSched) Status(ctx context.Context) (*cwsdk.SchedulingStatus, error) {
	return s.status, s.err
}

func TestBuildSummarySpotlightDedupesAndCaps(t *testing.T) {
	now := time.Unix(10_000, 0)
	resp := &cwsdk.InsightsResponse{
		Features: map[cwsdk.FeatureKey]cwsdk.FeatureStats{
			cwsdk.FeatureWatchlist: {Added: 12, Removed: 3},
		},
	}
	for i := range 10 {
		resp.Events = append(resp.Events, cwsdk.InsightEvent{
			TS:      int64(9_000 + i),
			Feature: cwsdk.FeatureWatchlist,
			Action:  "add",
			Title:   "Movie " + string(rune('A'+i%4)),
		})
	}

	sum := BuildSummary(resp, nil, now)

	// 10 events collapse onto 4 distinct titles, newest first
	require.Len(t, sum.Spotlight, 4)
	assert.Equal(t, "Movie B", sum.Spotlight[0].Title)
	assert.Contains(t, sum.Spotlight[0].When, "ago")
	assert.Equal(t, 12, sum.Features[cwsdk.FeatureWatchlist].Added)
}

func TestBuildSummaryEveryFeaturePresent(t *testing.T) {
	sum := BuildSummary(nil, nil, time.Unix(0, 0))
	for _, key := range cwsdk.FeatureKeys() {
		_, ok := sum.Features[key]
		assert.True(t, ok, "missing feature %s", key)
	}
	assert.Empty(t, sum.Spotlight)
}

func TestBuildSummaryBanner(t *testing.T) {
	now := time.Unix(10_000, 0)
	status := &cwsdk.SchedulingStatus{
		Enabled: true,
		NextRun: now.Add(2 * time.Hour).Unix(),
		LastRun: now.Add(-30 * time.Minute).Unix(),
	}

	sum := BuildSummary(nil, status, now)

	assert.True(t, sum.Banner.Enabled)
	assert.Contains(t, sum.Banner.NextRunIn, "from now")
	assert.Contains(t, sum.Banner.LastRun, "ago")
}

func TestRefreshStoresResponses(t *testing.T) {
	st := store.New(store.NewBus())
	src := &stubSource{resp: &cwsdk.InsightsResponse{
		Features: map[cwsdk.FeatureKey]cwsdk.FeatureStats{cwsdk.FeatureRatings: {Added: 1}},
	}}
	sched := &stubSched{status: &cwsdk.SchedulingStatus{Enabled: true}}
	sum := NewSummarizer(src, sched, st)

	require.NoError(t, sum.Refresh(context.Background()))
	require.NotNil(t, st.Insights())
	assert.Equal(t, 1, st.Insights().Features[cwsdk.FeatureRatings].Added)
	require.NotNil(t, st.Scheduling())
	assert.True(t, st.Scheduling().Enabled)
}

func TestRefreshToleratesSchedulerError(t *testing.T) {
	st := store.New(store.NewBus())
	src := &stubSource{resp: &cwsdk.InsightsResponse{}}
	sched := &stubSched{err: errors.New("boom")}
	sum := NewSummarizer(src, sched, st)

	require.NoError(t, sum.Refresh(context.Background()))
	assert.Nil(t, st.Scheduling())
}

func TestRefreshPropagatesInsightsError(t *testing.T) {
	st := store.New(store.NewBus())
	sum := NewSummarizer(&stubSource{err: errors.New("down")}, &stubSched{}, st)

	err := sum.Refresh(context.Background())
	require.Error(t, err)
}
