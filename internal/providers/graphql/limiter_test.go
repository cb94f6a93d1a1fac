package graphql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRateLimiter_Stop ends the refill loop and leaves the bucket drained.
func TestRateLimiter_Stop(t *testing.T) {
	limiter := newRateLimiter(1000, 1)
	require.NotNil(t, limiter)
	require.NoError(t, limiter.Wait(context.Background()))

	limiter.Stop()
	limiter.Stop()

	select {
	case <-limiter.done:
	default:
		t.Fatal("refill loop still running")
	}

	// a tick may have landed before Stop
	select {
	case <-limiter.tokens:
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}

// TestProvider_CloseIsIdempotent closes providers with and without a limiter.
func TestProvider_CloseIsIdempotent(t *testing.T) {
	p, err := NewWithConfig(Config{Endpoint: "http://localhost:4000/graphql"})
	require.NoError(t, err)
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())

	var nop *rateLimiter
	nop.Stop()
	assert.NoError(t, nop.Wait(context.Background()))
}
