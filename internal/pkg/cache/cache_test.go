package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/cache/cachetest"
	"github.com/ManuelReschke/ProposalCraft/internal/pkg/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPingClose(t *testing.T) {
	host, port, password := cachetest.Resolve(t)

	prev := env.Env
	t.Cleanup(func() {
		env.Env = prev
		_ = Close()
	})
	env.Env = map[string]string{
		"CACHE_HOST":     host,
		"CACHE_PORT":     port,
		"CACHE_PASSWORD": password,
	}

	SetupCache()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, Ping(ctx))

	require.NoError(t, Close())
	assert.Nil(t, client)
	assert.NoError(t, Close(), "closing twice is a no-op")
}
