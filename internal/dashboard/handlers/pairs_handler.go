package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/pairs"
	"github.com/crosswatch/dashd/internal/store"
)

// PairsHandler proxies pair CRUD through the optimistic manager so the UI
// sees local state immediately and failed writes roll back.
type PairsHandler struct {
	mgr   *pairs.Manager
	store *store.Store
}

func NewPairsHandler(mgr *pairs.Manager, st *store.Store) *PairsHandler {
	return &PairsHandler{mgr: mgr, store: st}
}

func (h *PairsHandler) List(c *gin.Context) {
	c.PureJSON(http.StatusOK, &PairsResponse{Pairs: h.store.Pairs()})
}

func (h *PairsHandler) Create(c *gin.Context) {
	var pair cwsdk.Pair
	if err := c.ShouldBindJSON(&pair); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	created, err := h.mgr.Create(c.Request.Context(), &pair)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusCreated, created)
}

func (h *PairsHandler) Update(c *gin.Context) {
	var pair cwsdk.Pair
	if err := c.ShouldBindJSON(&pair); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	pair.ID = c.Param("id")

	if err := h.mgr.Update(c.Request.Context(), &pair); err != nil {
		h.abortPairError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &DashboardResponse{Code: CodeOk})
}

func (h *PairsHandler) Toggle(c *gin.Context) {
	var body ToggleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	if err := h.mgr.Toggle(c.Request.Context(), c.Param("id"), *body.Enabled); err != nil {
		h.abortPairError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &DashboardResponse{Code: CodeOk})
}

func (h *PairsHandler) Delete(c *gin.Context) {
	if err := h.mgr.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.abortPairError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &DashboardResponse{Code: CodeOk})
}

func (h *PairsHandler) Move(c *gin.Context) {
	var body MoveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	if body.Direction != "up" && body.Direction != "down" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("direction must be up or down"))
		return
	}

	delta := 1
	if body.Direction == "up" {
		delta = -1
	}
	if err := h.mgr.Move(c.Request.Context(), c.Param("id"), delta); err != nil {
		h.abortPairError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, &PairsResponse{Pairs: h.store.Pairs()})
}

func (h *PairsHandler) abortPairError(c *gin.Context, err error) {
	if errors.Is(err, cwsdk.ErrPairNotFound) {
		AbortWithError(c, http.StatusNotFound, ErrCodePairNotFound, err)
		return
	}
	AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
}
