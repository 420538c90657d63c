package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

type stubSource struct {
	np     *cwsdk.NowPlaying
	status *cwsdk.WatchStatus
}

func (s *stubSource) CurrentlyWatching(ctx context.Context) (*cwsdk.NowPlaying, error) {
	return s.np, nil
}

func (s *stubSource) Status(ctx context.Context) (*cwsdk.WatchStatus, error) {
	return s.status, nil
}

func TestExtrapolateAdvancesPosition(t *testing.T) {
	np := cwsdk.NowPlaying{Active: true, PositionMS: 10_000, DurationMS: 100_000}
	out := Extrapolate(np, 3*time.Second)
	assert.Equal(t, int64(13_000), out.PositionMS)
}

func TestExtrapolatePausedStaysPut(t *testing.T) {
	np := cwsdk.NowPlaying{Active: true, Paused: true, PositionMS: 10_000, DurationMS: 100_000}
	out := Extrapolate(np, 30*time.Second)
	assert.Equal(t, int64(10_000), out.PositionMS)
}

func TestExtrapolateClampsToDuration(t *testing.T) {
	np := cwsdk.NowPlaying{Active: true, PositionMS: 99_000, DurationMS: 100_000}
	out := Extrapolate(np, time.Minute)
	assert.Equal(t, int64(100_000), out.PositionMS)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(nil))
	assert.Equal(t, 0, Progress(&cwsdk.NowPlaying{}))
	assert.Equal(t, 25, Progress(&cwsdk.NowPlaying{PositionMS: 25_000, DurationMS: 100_000}))
	assert.Equal(t, 100, Progress(&cwsdk.NowPlaying{PositionMS: 200_000, DurationMS: 100_000}))
}

func TestCurrentExtrapolatesBetweenPolls(t *testing.T) {
	st := store.New(store.NewBus())
	src := &stubSource{np: &cwsdk.NowPlaying{
		Active: true, Title: "Heat", PositionMS: 60_000, DurationMS: 600_000,
	}}
	p := NewPoller(src, st)

	base := time.Unix(1_000, 0)
	p.now = func() time.Time { return base }
	require.NoError(t, p.Refresh(context.Background()))

	p.now = func() time.Time { return base.Add(4 * time.Second) }
	got := p.Current()
	require.NotNil(t, got)
	assert.Equal(t, int64(64_000), got.PositionMS)

	// the stored copy keeps the fetched position
	assert.Equal(t, int64(60_000), st.NowPlaying().PositionMS)
}

func TestCurrentNilWhenIdle(t *testing.T) {
	st := store.New(store.NewBus())
	src := &stubSource{np: &cwsdk.NowPlaying{Active: false}}
	p := NewPoller(src, st)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Nil(t, p.Current())
}

type countingSource struct {
	stubSource
	polled chan struct{}
}

func (s *countingSource) CurrentlyWatching(ctx context.Context) (*cwsdk.NowPlaying, error) {
	select {
	case s.polled <- struct{}{}:
	default:
	}
	return s.stubSource.CurrentlyWatching(ctx)
}

func TestRunPollsEagerlyOnWatchTab(t *testing.T) {
	st := store.New(store.NewBus())
	src := &countingSource{
		stubSource: stubSource{np: &cwsdk.NowPlaying{Active: true}, status: &cwsdk.WatchStatus{Connected: true}},
		polled:     make(chan struct{}, 4),
	}
	p := NewPoller(src, st)
	p.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// first poll happens at loop entry
	select {
	case <-src.polled:
	case <-time.After(time.Second):
		t.Fatal("no initial poll")
	}

	st.Bus().TabChanged.Publish(store.TabChanged{Tab: "watch"})
	select {
	case <-src.polled:
	case <-time.After(time.Second):
		t.Fatal("tab switch did not trigger a poll")
	}
}
