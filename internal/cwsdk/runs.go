package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const (
	runPath          = "/api/run"
	runSummaryPath   = "/api/run/summary"
	runSummaryStream = "/api/run/summary/stream"
	logsStreamPath   = "/api/logs/stream"
)

// RunsAPI covers run control, the polled summary, and both SSE streams.
type RunsAPI struct {
	client  *resty.Client
	baseURL string
}

func newRunsAPI(client *resty.Client, baseURL string) *RunsAPI {
	return &RunsAPI{client: client, baseURL: baseURL}
}

// Trigger starts a sync run.
func (r *RunsAPI) Trigger(ctx context.Context) error {
	var apiErr APIError

	res, err := r.client.R().
		SetContext(ctx).
		SetError(&apiErr).
		Post(runPath)

	return handleAPIError(res, err, "run trigger")
}

// Summary polls the current run snapshot.
func (r *RunsAPI) Summary(ctx context.Context) (*RunSummary, error) {
	var resp RunSummary
	var apiErr APIError

	res, err := r.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(runSummaryPath)

	if err := handleAPIError(res, err, "run summary"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamSummary subscribes to the run summary SSE stream, delivering each
// event's raw JSON to fn until ctx is cancelled or reconnects are exhausted.
func (r *RunsAPI) StreamSummary(ctx context.Context, opts *StreamOptions, fn func(data []byte)) error {
	return streamSSE(ctx, r.client, runSummaryStream, opts, fn)
}

// StreamLogs subscribes to the raw log tail SSE stream.
func (r *RunsAPI) StreamLogs(ctx context.Context, opts *StreamOptions, fn func(data []byte)) error {
	return streamSSE(ctx, r.client, logsStreamPath, opts, fn)
}
