package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const insightsPath = "/api/insights"

// InsightEvent is one historical sync event from the insights feed.
type InsightEvent struct {
	TS      int64      `json:"ts"`
	Feature FeatureKey `json:"feature"`
	Action  string     `json:"action"` // add, remove, update
	Title   string     `json:"title,omitempty"`
}

// InsightsResponse aggregates historical stats per feature plus the flat
// event feed used for run hydration.
type InsightsResponse struct {
	Features map[FeatureKey]FeatureStats `json:"features"`
	Events   []InsightEvent              `json:"events,omitempty"`
}

// InsightsAPI covers the aggregated history feed.
type InsightsAPI struct {
	client *resty.Client
}

func newInsightsAPI(client *resty.Client) *InsightsAPI {
	return &InsightsAPI{client: client}
}

// Get fetches aggregated insights. since limits the event feed to events at
// or after the given unix timestamp; zero fetches everything.
func (i *InsightsAPI) Get(ctx context.Context, since int64) (*InsightsResponse, error) {
	var resp InsightsResponse
	var apiErr APIError

	req := i.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr)
	if since > 0 {
		req.SetQueryParam("since", itoa64(since))
	}

	res, err := req.Get(insightsPath)
	if err := handleAPIError(res, err, "insights"); err != nil {
		return nil, err
	}
	return &resp, nil
}
