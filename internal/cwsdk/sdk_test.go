package cwsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSDK(t *testing.T, handler http.Handler) *SDK {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sdk, err := New(srv.URL)
	require.NoError(t, err)
	t.Cleanup(sdk.Close)
	return sdk
}

func TestNewRequiresServerURL(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNoServerURL)
}

func TestPairsList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pairs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"p1","source":"PLEX","target":"TRAKT","mode":"two-way","enabled":true,
			"features":{"watchlist":{"enable":true,"add":true,"remove":false}}}]`)
	})

	sdk := newTestSDK(t, mux)
	pairs, err := sdk.Pairs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "p1", pairs[0].ID)
	assert.Equal(t, "two-way", pairs[0].Mode)
	assert.True(t, pairs[0].Features[FeatureWatchlist].Enable)
}

func TestPairsDeleteNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/pairs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	sdk := newTestSDK(t, mux)
	err := sdk.Pairs.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPairNotFound)
}

func TestRunSummaryDecodesLooseFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/run/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"running":false,"run_id":"r7","exit_code":0,
			"tl":{"started":true,"pre":true},
			"features":{"ratings":{"added":2,"removed":1,"updated":0,"items":3}}}`)
	})

	sdk := newTestSDK(t, mux)
	sum, err := sdk.Runs.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r7", sum.Identity())
	require.NotNil(t, sum.ExitCode)
	assert.Equal(t, 0, *sum.ExitCode)
	assert.NotEmpty(t, sum.TL)
	assert.False(t, sum.EmptyFeatures())
}

func TestStreamLogsDeliversEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/logs/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"event\":\"run:start\",\"dry_run\":false}\n\n")
		fl.Flush()
		fmt.Fprint(w, "data: {\"event\":\"run:done\",\"exit_code\":0}\n\n")
		fl.Flush()
		<-r.Context().Done()
	})

	sdk := newTestSDK(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	err := sdk.Runs.StreamLogs(ctx, nil, func(data []byte) {
		got = append(got, string(data))
		if len(got) == 2 {
			cancel()
		}
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "run:start")
	assert.Contains(t, got[1], "run:done")
}

func TestStreamExhaustsAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/run/summary/stream", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	sdk := newTestSDK(t, mux)

	var disconnected bool
	opts := &StreamOptions{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		OnStateChange: func(connected bool) {
			if !connected {
				disconnected = true
			}
		},
	}

	err := sdk.Runs.StreamSummary(context.Background(), opts, func([]byte) {
		t.Fatal("no event should be delivered")
	})

	assert.True(t, errors.Is(err, ErrStreamExhausted))
	assert.True(t, disconnected)
	assert.GreaterOrEqual(t, hits.Load(), int32(2))
}
