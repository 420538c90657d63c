package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/runstate"
	"github.com/crosswatch/dashd/internal/store"
)

func TestNewWiresComponents(t *testing.T) {
	d, err := New(&Config{
		ServerURL: "http://localhost:8787",
		Addr:      "localhost:0",
	})
	require.NoError(t, err)
	require.NotNil(t, d.Store())
	assert.Nil(t, d.history, "history stays off without a db path")
	assert.Nil(t, d.lock, "no lock without a lock path")
}

func TestNewRequiresServerURL(t *testing.T) {
	_, err := New(&Config{Addr: "localhost:0"})
	require.Error(t, err)
}

type stubTrigger struct {
	err    error
	called bool
}

func (s *stubTrigger) Trigger(ctx context.Context) error {
	s.called = true
	return s.err
}

func TestOptimisticTriggerFlipsRunState(t *testing.T) {
	st := store.New(store.NewBus())
	stub := &stubTrigger{}
	trig := &optimisticTrigger{runs: stub, recon: runstate.NewReconciler(), store: st}

	require.NoError(t, trig.Trigger(context.Background()))
	assert.True(t, stub.called)
	assert.True(t, st.Run().Running, "snapshot shows running before the first poll")
}

func TestOptimisticTriggerLeavesStateOnError(t *testing.T) {
	st := store.New(store.NewBus())
	stub := &stubTrigger{err: errors.New("backend down")}
	trig := &optimisticTrigger{runs: stub, recon: runstate.NewReconciler(), store: st}

	require.Error(t, trig.Trigger(context.Background()))
	assert.False(t, st.Run().Running)
}
