package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const (
	watchCurrentPath = "/api/watch/currently_watching"
	watchStatusPath  = "/api/watch/status"
)

// NowPlaying is the current scrobble state for the "now playing" card.
type NowPlaying struct {
	Active     bool   `json:"active"`
	Title      string `json:"title,omitempty"`
	Year       int    `json:"year,omitempty"`
	Kind       string `json:"kind,omitempty"` // movie, episode
	Show       string `json:"show,omitempty"`
	Season     int    `json:"season,omitempty"`
	Episode    int    `json:"episode,omitempty"`
	PositionMS int64  `json:"position_ms"`
	DurationMS int64  `json:"duration_ms"`
	Paused     bool   `json:"paused"`
	User       string `json:"user,omitempty"`
}

// WatchStatus reports whether the scrobble watcher is attached.
type WatchStatus struct {
	Connected bool   `json:"connected"`
	Provider  string `json:"provider,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WatchAPI covers the "now playing" endpoints.
type WatchAPI struct {
	client *resty.Client
}

func newWatchAPI(client *resty.Client) *WatchAPI {
	return &WatchAPI{client: client}
}

// CurrentlyWatching fetches the current scrobble state.
func (w *WatchAPI) CurrentlyWatching(ctx context.Context) (*NowPlaying, error) {
	var resp NowPlaying
	var apiErr APIError

	res, err := w.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(watchCurrentPath)

	if err := handleAPIError(res, err, "watch currently_watching"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the watcher connection state.
func (w *WatchAPI) Status(ctx context.Context) (*WatchStatus, error) {
	var resp WatchStatus
	var apiErr APIError

	res, err := w.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(watchStatusPath)

	if err := handleAPIError(res, err, "watch status"); err != nil {
		return nil, err
	}
	return &resp, nil
}
