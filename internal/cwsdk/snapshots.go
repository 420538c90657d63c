package cwsdk

import (
	"context"

	"resty.dev/v3"
)

const snapshotsDiffPath = "/api/snapshots/diff/extended"

// DiffEntry is one changed item between two snapshots.
type DiffEntry struct {
	Key     string     `json:"key"`
	Title   string     `json:"title"`
	Feature FeatureKey `json:"feature"`
	Change  string     `json:"change"` // added, removed, updated
	Before  string     `json:"before,omitempty"`
	After   string     `json:"after,omitempty"`
}

// SnapshotDiff is a two-capture diff for the compare modal.
type SnapshotDiff struct {
	From    string      `json:"from"`
	To      string      `json:"to"`
	Entries []DiffEntry `json:"entries"`
}

// SnapshotsAPI covers snapshot comparison.
type SnapshotsAPI struct {
	client *resty.Client
}

func newSnapshotsAPI(client *resty.Client) *SnapshotsAPI {
	return &SnapshotsAPI{client: client}
}

// DiffExtended fetches the extended diff between two captures.
func (s *SnapshotsAPI) DiffExtended(ctx context.Context, from, to string) (*SnapshotDiff, error) {
	var resp SnapshotDiff
	var apiErr APIError

	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("from", from).
		SetQueryParam("to", to).
		SetResult(&resp).
		SetError(&apiErr).
		Get(snapshotsDiffPath)

	if err := handleAPIError(res, err, "snapshots diff"); err != nil {
		return nil, err
	}
	return &resp, nil
}
