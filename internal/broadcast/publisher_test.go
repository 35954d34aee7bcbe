package broadcast_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/ecscache/internal/broadcast"
)

func newTestPublisher(t *testing.T) (*broadcast.Publisher, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	pub := broadcast.NewPublisher(broadcast.Config{
		Addr:    srv.Addr(),
		Channel: "ecscache:generation",
		Timeout: time.Second,
	}, slog.Default())
	t.Cleanup(func() { _ = pub.Close() })
	return pub, srv
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	pub, _ := newTestPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgs, unsubscribe := pub.Subscribe(ctx)
	defer unsubscribe()

	// miniredis delivers pub/sub synchronously once a subscriber is
	// registered, but the Subscribe call above races the goroutine that
	// reads from redis; give it a moment to attach.
	time.Sleep(50 * time.Millisecond)

	pub.Publish(ctx, "demo-world", 7)

	select {
	case gm := <-msgs:
		require.Equal(t, "demo-world", gm.WorldID)
		require.Equal(t, uint64(7), gm.Generation)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for generation message")
	}
}

func TestPublishToUnreachableRedisNeverBlocksOrPanics(t *testing.T) {
	pub := broadcast.NewPublisher(broadcast.Config{
		Addr:    "127.0.0.1:1", // nothing listens here
		Channel: "ecscache:generation",
		Timeout: 100 * time.Millisecond,
	}, slog.Default())
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NotPanics(t, func() {
		pub.Publish(ctx, "demo-world", 1)
	})
}
