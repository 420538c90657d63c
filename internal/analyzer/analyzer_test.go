package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
)

type stubAPI struct {
	state    cwsdk.AnalyzerState
	problems []cwsdk.AnalyzerProblem
	patchErr error
	patched  []*cwsdk.AnalyzerPatch
}

func (s *stubAPI) State(ctx context.Context) (*cwsdk.AnalyzerState, error) {
	st := s.state
	return &st, nil
}

func (s *stubAPI) Problems(ctx context.Context) ([]cwsdk.AnalyzerProblem, error) {
	return s.problems, nil
}

func (s *stubAPI) Patch(ctx context.Context, patch *cwsdk.AnalyzerPatch) error {
	if s.patchErr != nil {
		return s.patchErr
	}
	s.patched = append(s.patched, patch)
	return nil
}

type stubDiffs struct {
	diff *cwsdk.SnapshotDiff
}

func (s *stubDiffs) DiffExtended(ctx context.Context, from, to string) (*cwsdk.SnapshotDiff, error) {
	return s.diff, nil
}

func problems() []cwsdk.AnalyzerProblem {
	return []cwsdk.AnalyzerProblem{
		{Key: "p1", Title: "Heat", Issue: "missing imdb"},
		{Key: "p2", Title: "Alien", Issue: "ambiguous match"},
		{Key: "p3", Title: "Brazil", Issue: "missing imdb"},
	}
}

func TestRefreshAndGroupByIssue(t *testing.T) {
	api := &stubAPI{state: cwsdk.AnalyzerState{ItemCount: 900, Problems: 3}, problems: problems()}
	m := NewManager(api, &stubDiffs{})
	require.NoError(t, m.Refresh(context.Background()))

	groups, names := m.GroupByIssue()
	assert.Equal(t, []string{"ambiguous match", "missing imdb"}, names)
	assert.Len(t, groups["missing imdb"], 2)
	assert.Equal(t, 900, m.State().ItemCount)
}

func TestApplyPatchDropsProblem(t *testing.T) {
	api := &stubAPI{state: cwsdk.AnalyzerState{Problems: 3}, problems: problems()}
	m := NewManager(api, &stubDiffs{})
	require.NoError(t, m.Refresh(context.Background()))

	err := m.ApplyPatch(context.Background(), "p1", map[string]string{"imdb": "tt0113277"})
	require.NoError(t, err)
	require.Len(t, api.patched, 1)
	assert.Equal(t, "p1", api.patched[0].Key)

	assert.Len(t, m.Problems(), 2)
	assert.Equal(t, 2, m.State().Problems)
}

func TestApplyPatchFailureKeepsProblem(t *testing.T) {
	api := &stubAPI{problems: problems(), patchErr: errors.New("rejected")}
	m := NewManager(api, &stubDiffs{})
	require.NoError(t, m.Refresh(context.Background()))

	err := m.ApplyPatch(context.Background(), "p1", nil)
	require.Error(t, err)
	assert.Len(t, m.Problems(), 3)
}

func TestCompareGroupsByFeature(t *testing.T) {
	diffs := &stubDiffs{diff: &cwsdk.SnapshotDiff{
		From: "snap-a",
		To:   "snap-b",
		Entries: []cwsdk.DiffEntry{
			{Key: "k1", Feature: cwsdk.FeatureWatchlist, Change: "added"},
			{Key: "k2", Feature: cwsdk.FeatureWatchlist, Change: "removed"},
			{Key: "k3", Feature: cwsdk.FeatureRatings, Change: "updated"},
		},
	}}
	m := NewManager(&stubAPI{}, diffs)

	view, err := m.Compare(context.Background(), "snap-a", "snap-b")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)
	assert.Len(t, view.Features[cwsdk.FeatureWatchlist], 2)
	assert.Len(t, view.Features[cwsdk.FeatureRatings], 1)
}
