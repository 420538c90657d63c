package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const (
	analyzerStatePath    = "/api/analyzer/state"
	analyzerProblemsPath = "/api/analyzer/problems"
	analyzerPatchPath    = "/api/analyzer/patch"
)

// AnalyzerState is the library analyzer's scan status.
type AnalyzerState struct {
	Scanning   bool  `json:"scanning"`
	LastScanTS int64 `json:"last_scan_ts,omitempty"`
	ItemCount  int   `json:"item_count"`
	Problems   int   `json:"problems"`
}

// AnalyzerProblem is one item with a broken or ambiguous provider id.
type AnalyzerProblem struct {
	Key        string            `json:"key"`
	Title      string            `json:"title"`
	Year       int               `json:"year,omitempty"`
	Kind       string            `json:"kind"` // movie, show, episode
	IDs        map[string]string `json:"ids"`
	Issue      string            `json:"issue"`
	Suggestion map[string]string `json:"suggestion,omitempty"`
}

// AnalyzerPatch is an id-repair submission for one item.
type AnalyzerPatch struct {
	Key string            `json:"key" binding:"required"`
	IDs map[string]string `json:"ids" binding:"required"`
}

// AnalyzerAPI covers the library analyzer / id-repair tool.
type AnalyzerAPI struct {
	client *resty.Client
}

func newAnalyzerAPI(client *resty.Client) *AnalyzerAPI {
	return &AnalyzerAPI{client: client}
}

// State fetches the analyzer scan status.
func (a *AnalyzerAPI) State(ctx context.Context) (*AnalyzerState, error) {
	var resp AnalyzerState
	var apiErr APIError

	res, err := a.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(analyzerStatePath)

	if err := handleAPIError(res, err, "analyzer state"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Problems fetches the current problem list.
func (a *AnalyzerAPI) Problems(ctx context.Context) ([]AnalyzerProblem, error) {
	var resp []AnalyzerProblem
	var apiErr APIError

	res, err := a.client.R().
		SetContext(ctx).
		SetResult(&resp).
		SetError(&apiErr).
		Get(analyzerProblemsPath)

	if err := handleAPIError(res, err, "analyzer problems"); err != nil {
		return nil, err
	}
	return resp, nil
}

// Patch submits an id repair for one item.
func (a *AnalyzerAPI) Patch(ctx context.Context, patch *AnalyzerPatch) error {
	var apiErr APIError

	res, err := a.client.R().
		SetContext(ctx).
		SetBody(patch).
		SetError(&apiErr).
		Post(analyzerPatchPath)

	return handleAPIError(res, err, "analyzer patch")
}
