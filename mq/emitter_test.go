package mq

import (
	"context"
	"net"
	"testing"

	"boutique/models"
	"boutique/rdx"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// captureHook records the context error seen at publish time and
// short-circuits the command so no server is needed.
type captureHook struct {
	ctxErr *error
}

func (h captureHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, nil
	}
}

func (h captureHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		*h.ctxErr = ctx.Err()
		return nil
	}
}

func (h captureHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return next(ctx, cmds)
	}
}

func TestEmitSurvivesCancelledCallerContext(t *testing.T) {
	var seen error
	sentinel := context.Canceled
	seen = sentinel
	rdx.Conn.AddHook(captureHook{ctxErr: &seen})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Handlers fire Emit in a goroutine while their request context is
	// being torn down; the publish must not inherit that cancellation.
	Emit(ctx, "order-created", models.Index{EntityType: "order", EntityId: "o1", Method: "POST"})

	require.NoError(t, seen, "publish ran on a cancelled context")
}
