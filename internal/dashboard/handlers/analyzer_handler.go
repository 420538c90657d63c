package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/analyzer"
	"github.com/crosswatch/dashd/internal/cwsdk"
)

// AnalyzerHandler serves the id-repair tool.
type AnalyzerHandler struct {
	mgr *analyzer.Manager
}

func NewAnalyzerHandler(mgr *analyzer.Manager) *AnalyzerHandler {
	return &AnalyzerHandler{mgr: mgr}
}

func (h *AnalyzerHandler) State(c *gin.Context) {
	if err := h.mgr.Refresh(c.Request.Context()); err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, h.mgr.State())
}

func (h *AnalyzerHandler) Problems(c *gin.Context) {
	groups, names := h.mgr.GroupByIssue()
	c.PureJSON(http.StatusOK, &ProblemsResponse{Groups: groups, Order: names})
}

func (h *AnalyzerHandler) Patch(c *gin.Context) {
	var body cwsdk.AnalyzerPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	if err := h.mgr.ApplyPatch(c.Request.Context(), body.Key, body.IDs); err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, &DashboardResponse{Code: CodeOk})
}

func (h *AnalyzerHandler) Compare(c *gin.Context) {
	var params CompareRequest
	if err := c.ShouldBindQuery(&params); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	view, err := h.mgr.Compare(c.Request.Context(), params.From, params.To)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, view)
}

type ProblemsResponse struct {
	Groups map[string][]cwsdk.AnalyzerProblem `json:"groups"`
	Order  []string                           `json:"order"`
}

type CompareRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}
