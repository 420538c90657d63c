package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const (
	schedulingPath       = "/api/scheduling"
	schedulingStatusPath = "/api/scheduling/status"
)

// SchedulingConfig is the backend scheduler configuration shown in the
// banner widget.
type SchedulingConfig struct {
	Enabled  bool   `json:"enabled"`
	Mode     string `json:"mode,omitempty"` // hourly, daily, cron
	Interval int    `json:"interval,omitempty"`
	Cron     string `json:"cron,omitempty"`
}

// SchedulingStatus reports the scheduler's runtime state.
type SchedulingStatus struct {
	Enabled bool  `json:"enabled"`
	NextRun int64 `json:"next_run,omitempty"`
	LastRun int64 `json:"last_run,omitempty"`
}

// SchedulingAPI covers the scheduler banner endpoints.
type SchedulingAPI struct {
	client *resty.Client
}

func newSchedulingAPI(client *resty.Client) *SchedulingAPI {
	return &SchedulingAPI{client: client}
}

// Config fetches the scheduler configuration.
func (s *SchedulingAPI) Config(ctx context.Context) (*SchedulingConfig, error) {
	var resp SchedulingConfig
	var apiErr APIError

	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(schedulingPath)

	if err := handleAPIError(res, err, "scheduling config"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the scheduler's runtime state.
func (s *SchedulingAPI) Status(ctx context.Context) (*SchedulingStatus, error) {
	var resp SchedulingStatus
	var apiErr APIError

	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(schedulingStatusPath)

	if err := handleAPIError(res, err, "scheduling status"); err != nil {
		return nil, err
	}
	return &resp, nil
}
