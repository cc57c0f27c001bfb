package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopGuardAlwaysAcquires(t *testing.T) {
	var g NoopGuard
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "order:shopper-1:fudge=2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Acquire(ctx, "order:shopper-1:fudge=2")
	require.NoError(t, err)
	assert.True(t, ok, "noop guard never dedupes")

	g.Release(ctx, "order:shopper-1:fudge=2")
}
