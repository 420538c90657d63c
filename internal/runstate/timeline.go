// Package runstate reconciles the dashboard's optimistic run-progress view
// with the authoritative summaries polled from the backend.
package runstate

import (
	"github.com/goccy/go-json"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

// Timeline is the canonical four-stage run progression. Each flag is
// monotonic within one run: once true it never unsets.
type Timeline struct {
	Start bool `json:"start"`
	Pre   bool `json:"pre"`
	Post  bool `json:"post"`
	Done  bool `json:"done"`
}

// Merge folds a newer observation in, keeping flags monotonic.
func (t Timeline) Merge(o Timeline) Timeline {
	return Timeline{
		Start: t.Start || o.Start,
		Pre:   t.Pre || o.Pre,
		Post:  t.Post || o.Post,
		Done:  t.Done || o.Done,
	}
}

// InProgress reports whether the run has started but not finished.
func (t Timeline) InProgress() bool {
	return t.Start && !t.Done
}

// NormalizeTimeline maps the heterogeneous summary payload shapes onto the
// canonical Timeline. Backends have shipped the timeline as an object with
// varying key names, as a bare 4-element bool array, and sometimes not at
// all; a zero exit code or a finished/end flag without an explicit done is
// treated as done.
func NormalizeTimeline(s *cwsdk.RunSummary) Timeline {
	raw := s.Timeline
	if len(raw) == 0 {
		raw = s.TL
	}
	tl := decodeTimeline(raw)

	if !tl.Done {
		if s.Finished || s.End {
			tl.Done = true
		}
		if s.ExitCode != nil && *s.ExitCode == 0 {
			tl.Done = true
		}
	}
	if tl.Done {
		tl.Start = true
	}
	return tl
}

func decodeTimeline(raw json.RawMessage) Timeline {
	var tl Timeline
	if len(raw) == 0 {
		return tl
	}

	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) > 0 {
			tl.Start = boolish(arr[0])
		}
		if len(arr) > 1 {
			tl.Pre = boolish(arr[1])
		}
		if len(arr) > 2 {
			tl.Post = boolish(arr[2])
		}
		if len(arr) > 3 {
			tl.Done = boolish(arr[3])
		}
		return tl
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return tl
	}
	tl.Start = anyBool(obj, "start", "started", "begin")
	tl.Pre = anyBool(obj, "pre", "pre_done")
	tl.Post = anyBool(obj, "post", "post_done")
	tl.Done = anyBool(obj, "done", "finished", "end", "complete")
	return tl
}

func anyBool(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := obj[k]; ok && boolish(v) {
			return true
		}
	}
	return false
}

func boolish(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "true" || x == "1"
	default:
		return false
	}
}
