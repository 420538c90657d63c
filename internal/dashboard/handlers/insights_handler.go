package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/history"
	"github.com/crosswatch/dashd/internal/insights"
)

// InsightsHandler serves the aggregated history view and the local run log.
type InsightsHandler struct {
	summarizer *insights.Summarizer
	history    *history.Store
}

func NewInsightsHandler(sum *insights.Summarizer, hist *history.Store) *InsightsHandler {
	return &InsightsHandler{summarizer: sum, history: hist}
}

func (h *InsightsHandler) Summary(c *gin.Context) {
	c.PureJSON(http.StatusOK, h.summarizer.Summarize())
}

func (h *InsightsHandler) RecentRuns(c *gin.Context) {
	if h.history == nil {
		AbortWithError(c, http.StatusServiceUnavailable, ErrCodeHistoryDisabled, errors.New("run history disabled"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeUnknownError, err)
		return
	}
	c.PureJSON(http.StatusOK, &RunHistoryResponse{Runs: runs})
}

func (h *InsightsHandler) Totals(c *gin.Context) {
	if h.history == nil {
		AbortWithError(c, http.StatusServiceUnavailable, ErrCodeHistoryDisabled, errors.New("run history disabled"))
		return
	}

	totals, err := h.history.Totals(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeUnknownError, err)
		return
	}
	c.PureJSON(http.StatusOK, totals)
}
