package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/pairs"
	"github.com/crosswatch/dashd/internal/runstate"
	"github.com/crosswatch/dashd/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePairsAPI struct {
	pairs    []cwsdk.Pair
	failNext error
}

func (f *fakePairsAPI) List(ctx context.Context) ([]cwsdk.Pair, error) { return f.pairs, nil }

func (f *fakePairsAPI) Create(ctx context.Context, pair *cwsdk.Pair) (*cwsdk.Pair, error) {
	if f.failNext != nil {
		return nil, f.failNext
	}
	created := *pair
	created.ID = "srv-1"
	return &created, nil
}

func (f *fakePairsAPI) Update(ctx context.Context, pair *cwsdk.Pair) error { return f.failNext }
func (f *fakePairsAPI) Delete(ctx context.Context, id string) error        { return f.failNext }
func (f *fakePairsAPI) Reorder(ctx context.Context, order []string) error  { return f.failNext }

// closeNotifyRecorder adds the http.CloseNotifier method gin's Stream
// requires; httptest.ResponseRecorder alone panics inside c.Stream.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyRecorder() *closeNotifyRecorder {
	return &closeNotifyRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (c *closeNotifyRecorder) CloseNotify() <-chan bool { return c.closed }

type fakeTrigger struct {
	err   error
	calls int
}

func (f *fakeTrigger) Trigger(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestStatusHandler(t *testing.T) {
	st := store.New(store.NewBus())
	st.SetRun(runstate.Snapshot{Running: true, RunID: "r1", Percent: 40})

	r := gin.New()
	r.GET("/v1/status", NewStatusHandler(st, "http://localhost:8787").Status)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
	assert.Contains(t, w.Body.String(), `"backend":"http://localhost:8787"`)
}

func TestPairsListAndDelete(t *testing.T) {
	st := store.New(store.NewBus())
	api := &fakePairsAPI{pairs: []cwsdk.Pair{{ID: "a"}, {ID: "b"}}}
	mgr := pairs.NewManager(api, st)
	require.NoError(t, mgr.Refresh(context.Background()))

	h := NewPairsHandler(mgr, st)
	r := gin.New()
	r.GET("/v1/pairs", h.List)
	r.DELETE("/v1/pairs/:id", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/pairs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"a"`)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodDelete, "/v1/pairs/a", nil))
	require.Equal(t, http.StatusOK, w2.Code)
	assert.Len(t, st.Pairs(), 1)
}

func TestPairsDeleteRollsBackOnBackendError(t *testing.T) {
	st := store.New(store.NewBus())
	api := &fakePairsAPI{pairs: []cwsdk.Pair{{ID: "a"}}}
	mgr := pairs.NewManager(api, st)
	require.NoError(t, mgr.Refresh(context.Background()))
	api.failNext = errors.New("down")

	h := NewPairsHandler(mgr, st)
	r := gin.New()
	r.DELETE("/v1/pairs/:id", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/pairs/a", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Len(t, st.Pairs(), 1)
}

func TestPairsMoveValidatesDirection(t *testing.T) {
	st := store.New(store.NewBus())
	mgr := pairs.NewManager(&fakePairsAPI{}, st)
	h := NewPairsHandler(mgr, st)
	r := gin.New()
	r.POST("/v1/pairs/:id/move", h.Move)

	req := httptest.NewRequest(http.MethodPost, "/v1/pairs/a/move", strings.NewReader(`{"direction":"sideways"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunTriggerAndSummary(t *testing.T) {
	st := store.New(store.NewBus())
	st.SetRun(runstate.Snapshot{Percent: 12, Running: true})
	trig := &fakeTrigger{}
	h := NewRunHandler(trig, st)

	r := gin.New()
	r.POST("/v1/run", h.Trigger)
	r.GET("/v1/run/summary", h.Summary)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/run", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, trig.calls)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/v1/run/summary", nil))
	assert.Contains(t, w2.Body.String(), `"percent":12`)
}

func TestRunEventsReplaysSnapshot(t *testing.T) {
	st := store.New(store.NewBus())
	st.SetRun(runstate.Snapshot{Running: true, RunID: "r9", Percent: 30})
	h := NewRunHandler(&fakeTrigger{}, st)

	r := gin.New()
	r.GET("/v1/run/events", h.Events)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	req := httptest.NewRequest(http.MethodGet, "/v1/run/events", nil).WithContext(ctx)
	w := newCloseNotifyRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:run")
	assert.Contains(t, w.Body.String(), `"run_id":"r9"`)
}

func TestLogsRecent(t *testing.T) {
	st := store.New(store.NewBus())
	st.AppendBlocks([]logstream.Block{
		{Kind: logstream.BlockStart, Title: "Sync started"},
	})
	h := NewLogsHandler(st)

	r := gin.New()
	r.GET("/v1/logs", h.Recent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sync started")
}

type fakeConfig struct {
	cfg  cwsdk.AppConfig
	sets []cwsdk.AppConfig
}

func (f *fakeConfig) Get(ctx context.Context) (*cwsdk.AppConfig, error) {
	cfg := f.cfg
	return &cfg, nil
}

func (f *fakeConfig) Set(ctx context.Context, cfg *cwsdk.AppConfig) error {
	f.sets = append(f.sets, *cfg)
	return nil
}

func TestConfigSetEnforcesGuardExclusion(t *testing.T) {
	st := store.New(store.NewBus())
	cfgSrc := &fakeConfig{}
	h := NewConfigHandler(cfgSrc, nil, nil, st)

	r := gin.New()
	r.POST("/v1/config", h.Set)

	body := `{"drop_guard":true,"mass_delete":true}`
	req := httptest.NewRequest(http.MethodPost, "/v1/config", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, cfgSrc.sets, 1)
	assert.True(t, cfgSrc.sets[0].DropGuard)
	assert.False(t, cfgSrc.sets[0].MassDelete)
}

func TestConfigGetUsesCache(t *testing.T) {
	st := store.New(store.NewBus())
	st.PutConfig(&cwsdk.AppConfig{PlexUser: "cached"}, false)
	h := NewConfigHandler(&fakeConfig{cfg: cwsdk.AppConfig{PlexUser: "fresh"}}, nil, nil, st)

	r := gin.New()
	r.GET("/v1/config", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/config", nil))
	assert.Contains(t, w.Body.String(), "cached")
}
