package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/store"
	"github.com/crosswatch/dashd/internal/version"
)

// StatusHandler reports daemon health and backend connectivity.
type StatusHandler struct {
	store      *store.Store
	backendURL string
}

func NewStatusHandler(st *store.Store, backendURL string) *StatusHandler {
	return &StatusHandler{store: st, backendURL: backendURL}
}

func (h *StatusHandler) Status(c *gin.Context) {
	run := h.store.Run()
	c.PureJSON(http.StatusOK, &StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version.Version,
		Revision:  version.Revision,
		BuildDate: version.BuildDate,
		Backend:   h.backendURL,
		Streams:   h.store.StreamStates(),
		Run: RunInfo{
			Running: run.Running,
			RunID:   run.RunID,
			Percent: run.Percent,
		},
	})
}
