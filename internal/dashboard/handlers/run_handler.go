package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/runstate"
	"github.com/crosswatch/dashd/internal/store"
)

// RunTrigger starts a sync on the backend.
type RunTrigger interface {
	Trigger(ctx context.Context) error
}

// RunHandler exposes run control, the reconciled summary, and the live
// event stream.
type RunHandler struct {
	trigger RunTrigger
	store   *store.Store
}

func NewRunHandler(trigger RunTrigger, st *store.Store) *RunHandler {
	return &RunHandler{trigger: trigger, store: st}
}

func (h *RunHandler) Trigger(c *gin.Context) {
	if err := h.trigger.Trigger(c.Request.Context()); err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, gin.H{"status": "run triggered"})
}

func (h *RunHandler) Summary(c *gin.Context) {
	c.PureJSON(http.StatusOK, h.store.Run())
}

// Events streams run snapshots, rendered log blocks, stream connectivity and
// now-playing changes over SSE. The first frame replays the current snapshot
// so a reconnecting tab paints immediately.
func (h *RunHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	type frame struct {
		event string
		data  any
	}
	frames := make(chan frame, 64)

	push := func(f frame) {
		select {
		case frames <- f:
		default:
			// slow consumer, drop rather than stall the bus
		}
	}

	bus := h.store.Bus()
	cancelRun := bus.RunChanged.Subscribe(func(snap runstate.Snapshot) {
		push(frame{event: "run", data: snap})
	})
	defer cancelRun()
	cancelBlocks := bus.LogBlocks.Subscribe(func(b logstream.Block) {
		push(frame{event: "block", data: b})
	})
	defer cancelBlocks()
	cancelDone := bus.SyncComplete.Subscribe(func(fin runstate.FinishedRun) {
		push(frame{event: "complete", data: fin})
	})
	defer cancelDone()
	cancelStream := bus.StreamState.Subscribe(func(st store.StreamState) {
		push(frame{event: "stream", data: st})
	})
	defer cancelStream()
	cancelWatch := bus.NowPlaying.Subscribe(func(np cwsdk.NowPlaying) {
		push(frame{event: "watch", data: np})
	})
	defer cancelWatch()
	cancelPairs := bus.PairsChanged.Subscribe(func(pairs []cwsdk.Pair) {
		push(frame{event: "pairs", data: pairs})
	})
	defer cancelPairs()

	push(frame{event: "run", data: h.store.Run()})

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case f := <-frames:
			c.SSEvent(f.event, f.data)
			return true
		}
	})
}
