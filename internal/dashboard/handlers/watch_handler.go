package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/watch"
)

// WatchHandler serves the now-playing card state.
type WatchHandler struct {
	poller *watch.Poller
}

func NewWatchHandler(p *watch.Poller) *WatchHandler {
	return &WatchHandler{poller: p}
}

func (h *WatchHandler) NowPlaying(c *gin.Context) {
	np := h.poller.Current()
	if np == nil {
		c.PureJSON(http.StatusOK, &NowPlayingResponse{Active: false})
		return
	}
	c.PureJSON(http.StatusOK, &NowPlayingResponse{
		Active:   true,
		Item:     np,
		Progress: watch.Progress(np),
	})
}

type NowPlayingResponse struct {
	Active   bool              `json:"active"`
	Item     *cwsdk.NowPlaying `json:"item,omitempty"`
	Progress int               `json:"progress"`
}
