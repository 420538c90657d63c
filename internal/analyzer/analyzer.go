// Package analyzer drives the library analyzer view: scan status, the
// problem list for id repair, and the extended snapshot diff.
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

// API is the slice of the SDK the manager calls.
type API interface {
	State(ctx context.Context) (*cwsdk.AnalyzerState, error)
	Problems(ctx context.Context) ([]cwsdk.AnalyzerProblem, error)
	Patch(ctx context.Context, patch *cwsdk.AnalyzerPatch) error
}

// DiffSource fetches the extended snapshot diff.
type DiffSource interface {
	DiffExtended(ctx context.Context, from, to string) (*cwsdk.SnapshotDiff, error)
}

// Manager caches analyzer state between backend calls.
type Manager struct {
	mu       sync.RWMutex
	api      API
	diffs    DiffSource
	state    cwsdk.AnalyzerState
	problems []cwsdk.AnalyzerProblem
}

// NewManager creates a Manager.
func NewManager(api API, diffs DiffSource) *Manager {
	return &Manager{api: api, diffs: diffs}
}

// Refresh fetches scan status and the problem list.
func (m *Manager) Refresh(ctx context.Context) error {
	state, err := m.api.State(ctx)
	if err != nil {
		return fmt.Errorf("analyzer: state: %w", err)
	}
	problems, err := m.api.Problems(ctx)
	if err != nil {
		return fmt.Errorf("analyzer: problems: %w", err)
	}

	m.mu.Lock()
	m.state = *state
	m.problems = problems
	m.mu.Unlock()
	return nil
}

// State returns the last fetched scan status.
func (m *Manager) State() cwsdk.AnalyzerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Problems returns the cached problem list.
func (m *Manager) Problems() []cwsdk.AnalyzerProblem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]cwsdk.AnalyzerProblem, len(m.problems))
	copy(out, m.problems)
	return out
}

// GroupByIssue buckets the problem list for the grouped table view. Group
// names come back sorted so the rendering is stable.
func (m *Manager) GroupByIssue() (groups map[string][]cwsdk.AnalyzerProblem, names []string) {
	groups = make(map[string][]cwsdk.AnalyzerProblem)
	for _, p := range m.Problems() {
		groups[p.Issue] = append(groups[p.Issue], p)
	}
	names = make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return groups, names
}

// ApplyPatch submits an id repair and drops the repaired item from the
// cached list on success.
func (m *Manager) ApplyPatch(ctx context.Context, key string, ids map[string]string) error {
	if err := m.api.Patch(ctx, &cwsdk.AnalyzerPatch{Key: key, IDs: ids}); err != nil {
		return fmt.Errorf("analyzer: patch %s: %w", key, err)
	}

	m.mu.Lock()
	kept := m.problems[:0]
	for _, p := range m.problems {
		if p.Key != key {
			kept = append(kept, p)
		}
	}
	m.problems = kept
	m.state.Problems = len(kept)
	m.mu.Unlock()
	return nil
}

// DiffView is the compare modal's grouped presentation of a snapshot diff.
type DiffView struct {
	From     string
	To       string
	Features map[cwsdk.FeatureKey][]cwsdk.DiffEntry
	Total    int
}

// Compare fetches and groups the extended diff between two captures.
func (m *Manager) Compare(ctx context.Context, from, to string) (*DiffView, error) {
	diff, err := m.diffs.DiffExtended(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("analyzer: diff: %w", err)
	}

	view := &DiffView{
		From:     diff.From,
		To:       diff.To,
		Features: make(map[cwsdk.FeatureKey][]cwsdk.DiffEntry),
		Total:    len(diff.Entries),
	}
	for _, e := range diff.Entries {
		view.Features[e.Feature] = append(view.Features[e.Feature], e)
	}
	return view, nil
}
