package pairs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/store"
)

type fakeAPI struct {
	pairs     []cwsdk.Pair
	failNext  error
	lastOrder []string
}

func (f *fakeAPI) List(ctx context.Context) ([]cwsdk.Pair, error) {
	if err := f.take(); err != nil {
		return nil, err
	}
	return f.pairs, nil
}

func (f *fakeAPI) Create(ctx context.Context, pair *cwsdk.Pair) (*cwsdk.Pair, error) {
	if err := f.take(); err != nil {
		return nil, err
	}
	created := *pair
	created.ID = "srv-1"
	f.pairs = append(f.pairs, created)
	return &created, nil
}

func (f *fakeAPI) Update(ctx context.Context, pair *cwsdk.Pair) error { return f.take() }
func (f *fakeAPI) Delete(ctx context.Context, id string) error        { return f.take() }

func (f *fakeAPI) Reorder(ctx context.Context, order []string) error {
	if err := f.take(); err != nil {
		return err
	}
	f.lastOrder = order
	return nil
}

func (f *fakeAPI) take() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func seeded(t *testing.T, api *fakeAPI) (*Manager, *store.Store) {
	t.Helper()
	st := store.New(store.NewBus())
	mgr := NewManager(api, st)
	require.NoError(t, mgr.Refresh(context.Background()))
	return mgr, st
}

func threePairs() []cwsdk.Pair {
	return []cwsdk.Pair{
		{ID: "a", Source: "PLEX", Target: "TRAKT", Enabled: true},
		{ID: "b", Source: "PLEX", Target: "SIMKL", Enabled: true},
		{ID: "c", Source: "TRAKT", Target: "PLEX", Enabled: false},
	}
}

func TestRefreshPopulatesStore(t *testing.T) {
	mgr, st := seeded(t, &fakeAPI{pairs: threePairs()})
	_ = mgr
	assert.Len(t, st.Pairs(), 3)
	assert.Equal(t, "b", st.Pairs()[1].ID)
}

func TestCreateAppendsServerPair(t *testing.T) {
	api := &fakeAPI{}
	mgr, st := seeded(t, api)

	created, err := mgr.Create(context.Background(), &cwsdk.Pair{Source: "PLEX", Target: "TRAKT"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	require.Len(t, st.Pairs(), 1)
	assert.Equal(t, "srv-1", st.Pairs()[0].ID)
}

func TestCreateFailureLeavesListUntouched(t *testing.T) {
	api := &fakeAPI{failNext: errors.New("boom")}
	st := store.New(store.NewBus())
	mgr := NewManager(api, st)

	_, err := mgr.Create(context.Background(), &cwsdk.Pair{Source: "PLEX", Target: "TRAKT"})
	require.Error(t, err)
	assert.Empty(t, st.Pairs())
}

func TestDeleteOptimisticThenRollback(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, st := seeded(t, api)

	require.NoError(t, mgr.Delete(context.Background(), "b"))
	require.Len(t, st.Pairs(), 2)

	api.failNext = errors.New("backend down")
	err := mgr.Delete(context.Background(), "a")
	require.Error(t, err)
	// the failed delete is rolled back, "a" is still present
	require.Len(t, st.Pairs(), 2)
	assert.Equal(t, "a", st.Pairs()[0].ID)
}

func TestToggleRollsBackEnabledFlag(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, st := seeded(t, api)

	require.NoError(t, mgr.Toggle(context.Background(), "c", true))
	assert.True(t, st.Pairs()[2].Enabled)

	api.failNext = errors.New("backend down")
	err := mgr.Toggle(context.Background(), "a", false)
	require.Error(t, err)
	assert.True(t, st.Pairs()[0].Enabled)
}

func TestToggleUnknownPair(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, _ := seeded(t, api)

	err := mgr.Toggle(context.Background(), "nope", true)
	require.ErrorIs(t, err, cwsdk.ErrPairNotFound)
}

func TestMoveSplicesAndPersistsOrder(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, st := seeded(t, api)

	require.NoError(t, mgr.Move(context.Background(), "c", -1))
	ids := pairIDs(st.Pairs())
	assert.Equal(t, []string{"a", "c", "b"}, ids)
	assert.Equal(t, []string{"a", "c", "b"}, api.lastOrder)
}

func TestMoveOutOfRangeIsNoop(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, st := seeded(t, api)

	require.NoError(t, mgr.Move(context.Background(), "a", -1))
	assert.Equal(t, []string{"a", "b", "c"}, pairIDs(st.Pairs()))
}

func TestMoveRollsBackOnReorderFailure(t *testing.T) {
	api := &fakeAPI{pairs: threePairs()}
	mgr, st := seeded(t, api)

	api.failNext = errors.New("backend down")
	err := mgr.Move(context.Background(), "a", 1)
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, pairIDs(st.Pairs()))
}

func pairIDs(pairs []cwsdk.Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.ID)
	}
	return out
}
