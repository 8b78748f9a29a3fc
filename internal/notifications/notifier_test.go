package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
	assert.NoError(t, n.PublishRequestEvent(context.Background(), RequestEvent{Type: "request.created"}))
	assert.NoError(t, n.StartRequestSubscriber(context.Background(), nil))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_PublishRequestEventFansOut(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	events := make(chan RequestEvent, 4)
	require.NoError(t, n.StartRequestSubscriber(ctx, func(channel, payload string) {
		atomic.AddInt32(&received, 1)
		var event RequestEvent
		if err := json.Unmarshal([]byte(payload), &event); err == nil {
			events <- event
		}
	}))

	require.NoError(t, n.PublishRequestEvent(context.Background(), RequestEvent{
		Type:        "request.approved",
		RequestID:   7,
		DeviceID:    3,
		RequesterID: 42,
		Status:      "approved",
	}))

	// One publish fans out to the shared channel and the user channel.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 2
	}, time.Second, 10*time.Millisecond)

	event := <-events
	assert.Equal(t, "request.approved", event.Type)
	assert.Equal(t, uint(7), event.RequestID)
	assert.Equal(t, uint(42), event.RequesterID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.StartRequestSubscriber(ctx, func(_, _ string) {
		atomic.AddInt32(&received, 1)
	}))

	require.NoError(t, n.PublishUser(context.Background(), 9, "before-cancel"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	before := atomic.LoadInt32(&received)

	require.NoError(t, n.PublishUser(context.Background(), 9, "after-cancel"))
	assert.Never(t, func() bool {
		return atomic.LoadInt32(&received) > before
	}, 200*time.Millisecond, 10*time.Millisecond)
}
