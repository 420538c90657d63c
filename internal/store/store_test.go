package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/logstream"
)

func TestTopicSubscribePublishCancel(t *testing.T) {
	var topic Topic[int]

	var got []int
	cancel := topic.Subscribe(func(v int) { got = append(got, v) })

	topic.Publish(1)
	topic.Publish(2)
	cancel()
	topic.Publish(3)

	assert.Equal(t, []int{1, 2}, got)
}

func TestSetPairsPublishesTypedPayload(t *testing.T) {
	bus := NewBus()
	s := New(bus)

	var seen []cwsdk.Pair
	bus.PairsChanged.Subscribe(func(pairs []cwsdk.Pair) { seen = pairs })

	s.SetPairs([]cwsdk.Pair{{ID: "p1"}})

	require.Len(t, seen, 1)
	assert.Equal(t, "p1", seen[0].ID)
	assert.Equal(t, "p1", s.Pairs()[0].ID)
}

func TestBlocksBoundedAndTextRendered(t *testing.T) {
	s := New(NewBus())

	for range maxRetainBlocks + 50 {
		s.AppendBlocks([]logstream.Block{{Kind: logstream.BlockText, Title: "x"}})
	}
	assert.Len(t, s.Blocks(), maxRetainBlocks)

	s.AppendBlocks([]logstream.Block{{Kind: logstream.BlockSummary, Title: "Totals", Meta: "added 3 · removed 1"}})
	assert.Contains(t, s.LogText(), "Totals added 3")
}

func TestConfigCacheRoundTrip(t *testing.T) {
	bus := NewBus()
	s := New(bus)

	_, ok := s.CachedConfig()
	assert.False(t, ok)

	var saved bool
	bus.ConfigSaved.Subscribe(func(ConfigSaved) { saved = true })

	s.PutConfig(&cwsdk.AppConfig{PlexUser: "kai"}, true)
	cfg, ok := s.CachedConfig()
	require.True(t, ok)
	assert.Equal(t, "kai", cfg.PlexUser)
	assert.True(t, saved)
}
