package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

// ConfigSource is the slice of the SDK the config handler calls.
type ConfigSource interface {
	Get(ctx context.Context) (*cwsdk.AppConfig, error)
	Set(ctx context.Context, cfg *cwsdk.AppConfig) error
}

// PlexSource covers the Plex auth and library surfaces.
type PlexSource interface {
	NewPin(ctx context.Context) (*cwsdk.PlexPin, error)
	CheckPin(ctx context.Context, id int) (*cwsdk.PlexPinStatus, error)
	PickUsers(ctx context.Context) ([]cwsdk.PlexUser, error)
	Libraries(ctx context.Context) ([]cwsdk.PlexLibrary, error)
	Servers(ctx context.Context) ([]cwsdk.PlexServer, error)
	Inspect(ctx context.Context) (*cwsdk.PlexInspect, error)
}

// SchedulingSource reads the backend scheduler.
type SchedulingSource interface {
	Config(ctx context.Context) (*cwsdk.SchedulingConfig, error)
	Status(ctx context.Context) (*cwsdk.SchedulingStatus, error)
}

// ConfigHandler proxies application config and the Plex onboarding flow.
// Reads go through the store's short-lived cache so settings modals do not
// hammer the backend.
type ConfigHandler struct {
	config ConfigSource
	plex   PlexSource
	sched  SchedulingSource
	store  *store.Store
}

func NewConfigHandler(config ConfigSource, plex PlexSource, sched SchedulingSource, st *store.Store) *ConfigHandler {
	return &ConfigHandler{config: config, plex: plex, sched: sched, store: st}
}

func (h *ConfigHandler) Get(c *gin.Context) {
	if cfg, ok := h.store.CachedConfig(); ok {
		c.PureJSON(http.StatusOK, cfg)
		return
	}

	cfg, err := h.config.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	h.store.PutConfig(cfg, false)
	c.PureJSON(http.StatusOK, cfg)
}

func (h *ConfigHandler) Set(c *gin.Context) {
	var cfg cwsdk.AppConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}
	cfg.Normalize()

	if err := h.config.Set(c.Request.Context(), &cfg); err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	h.store.PutConfig(&cfg, true)
	c.PureJSON(http.StatusOK, &cfg)
}

func (h *ConfigHandler) Scheduling(c *gin.Context) {
	cfg, err := h.sched.Config(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	status, err := h.sched.Status(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, &SchedulingResponse{Config: cfg, Status: status})
}

func (h *ConfigHandler) PlexNewPin(c *gin.Context) {
	pin, err := h.plex.NewPin(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, pin)
}

func (h *ConfigHandler) PlexCheckPin(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, err)
		return
	}

	status, err := h.plex.CheckPin(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, status)
}

func (h *ConfigHandler) PlexUsers(c *gin.Context) {
	users, err := h.plex.PickUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, users)
}

func (h *ConfigHandler) PlexLibraries(c *gin.Context) {
	libs, err := h.plex.Libraries(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, libs)
}

func (h *ConfigHandler) PlexServers(c *gin.Context) {
	servers, err := h.plex.Servers(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, servers)
}

func (h *ConfigHandler) PlexInspect(c *gin.Context) {
	info, err := h.plex.Inspect(c.Request.Context())
	if err != nil {
		AbortWithError(c, http.StatusBadGateway, ErrCodeBackendDown, err)
		return
	}
	c.PureJSON(http.StatusOK, info)
}

type SchedulingResponse struct {
	Config *cwsdk.SchedulingConfig `json:"config"`
	Status *cwsdk.SchedulingStatus `json:"status"`
}
