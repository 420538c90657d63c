package cwsdk

import "github.com/goccy/go-json"

// FeatureStats is the per-feature outcome of a run.
type FeatureStats struct {
	Added           int      `json:"added"`
	Removed         int      `json:"removed"`
	Updated         int      `json:"updated"`
	Items           int      `json:"items"`
	SpotlightAdd    []string `json:"spotlight_add,omitempty"`
	SpotlightRemove []string `json:"spotlight_remove,omitempty"`
	SpotlightUpdate []string `json:"spotlight_update,omitempty"`
}

// RunSummary is the backend's snapshot of the current (or last) sync run.
// The timeline arrives under varying field names and shapes depending on
// backend version; both raw forms are retained here and canonicalized by the
// runstate package.
type RunSummary struct {
	Running   bool                        `json:"running"`
	RunID     string                      `json:"run_id,omitempty"`
	StartedTS int64                       `json:"started_ts,omitempty"`
	ExitCode  *int                        `json:"exit_code"`
	Finished  bool                        `json:"finished,omitempty"`
	End       bool                        `json:"end,omitempty"`
	Timeline  json.RawMessage             `json:"timeline,omitempty"`
	TL        json.RawMessage             `json:"tl,omitempty"`
	Features  map[FeatureKey]FeatureStats `json:"features,omitempty"`
}

// Identity returns a stable identifier for one run, preferring run_id and
// falling back to the start timestamp.
func (s *RunSummary) Identity() string {
	if s.RunID != "" {
		return s.RunID
	}
	if s.StartedTS != 0 {
		return "ts:" + itoa64(s.StartedTS)
	}
	return ""
}

// EmptyFeatures reports whether every per-feature counter is zero.
func (s *RunSummary) EmptyFeatures() bool {
	for _, f := range s.Features {
		if f.Added != 0 || f.Removed != 0 || f.Updated != 0 {
			return false
		}
	}
	return true
}
