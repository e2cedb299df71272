package counter

import (
	"context"
	"testing"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/cache/cachetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got map[string]int64
}

func (s *recordingSink) AddViews(increments map[string]int64) error {
	if s.got == nil {
		s.got = map[string]int64{}
	}
	for k, v := range increments {
		s.got[k] += v
	}
	return nil
}

func TestFlushDrainsViews(t *testing.T) {
	client := cachetest.NewClient(t, cachetest.CounterDB)
	c := New(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddShareView(ctx, "abc123XYZ0"))
	}
	require.NoError(t, c.AddShareView(ctx, "zzz"))

	pending, err := c.Pending(ctx, "abc123XYZ0")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pending)

	sink := &recordingSink{}
	n, err := c.Flush(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, map[string]int64{"abc123XYZ0": 3, "zzz": 1}, sink.got)

	pending, err = c.Pending(ctx, "abc123XYZ0")
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)

	n, err = c.Flush(ctx, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
