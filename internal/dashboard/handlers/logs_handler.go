package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/logstream"
	"github.com/crosswatch/dashd/internal/store"
)

const wsWriteTimeout = 20 * time.Second

// LogsHandler serves the rendered log block backlog and a live WebSocket
// feed of new blocks.
type LogsHandler struct {
	store *store.Store
}

func NewLogsHandler(st *store.Store) *LogsHandler {
	return &LogsHandler{store: st}
}

func (h *LogsHandler) Recent(c *gin.Context) {
	c.PureJSON(http.StatusOK, &LogsResponse{Blocks: h.store.Blocks()})
}

// Live upgrades to a WebSocket, replays the backlog, then pushes every new
// block as it is rendered. One goroutine per connection; the bus handler
// only drops into a buffered channel.
func (h *LogsHandler) Live(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Debug("ws accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := c.Request.Context()
	blocks := make(chan logstream.Block, 256)
	cancel := h.store.Bus().LogBlocks.Subscribe(func(b logstream.Block) {
		select {
		case blocks <- b:
		default:
		}
	})
	defer cancel()

	write := func(b logstream.Block) error {
		wctx, done := context.WithTimeout(ctx, wsWriteTimeout)
		defer done()
		return wsjson.Write(wctx, conn, b)
	}

	for _, b := range h.store.Blocks() {
		if err := write(b); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "shutdown")
			return
		case b := <-blocks:
			if err := write(b); err != nil {
				slog.Debug("ws write failed", "error", err)
				return
			}
		}
	}
}
