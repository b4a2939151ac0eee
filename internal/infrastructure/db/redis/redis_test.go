package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestConnect(t *testing.T) {
	mr, _ := newTestRedis(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, NewPinger(client).Ping(context.Background()))

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	rl := NewRateLimiter(client, "auth", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "hit %d should pass", i+1)
	}

	ok, retry, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	ok, _, err = rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other clients have their own window")

	mr.FastForward(time.Minute + time.Second)
	ok, _, err = rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window should reset")
}

func TestRateLimiter_RedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	rl := NewRateLimiter(client, "auth", 3, time.Minute)
	mr.Close()

	_, _, err := rl.Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
}

func TestEventStream_PublishIdentityEvent(t *testing.T) {
	mr, client := newTestRedis(t)
	s := NewEventStream(client, 1000, time.Second, nil)
	at := time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)

	err := s.PublishIdentityEvent(context.Background(), domain.IdentityEvent{
		Name: domain.EventNewGoogleUserRegistered, Email: "ana@gmail.com", Timestamp: at,
	})
	require.NoError(t, err)

	entries, err := client.XRange(context.Background(), IdentityStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	v := entries[0].Values
	assert.Equal(t, "NewGoogleUserRegistered", v["event"])
	assert.Equal(t, "ana@gmail.com", v["user"])
	assert.Equal(t, "2024-05-02T10:30:00Z", v["timestamp"])
	_, err = ulid.ParseStrict(v["id"].(string))
	assert.NoError(t, err)
	assert.True(t, mr.Exists(IdentityStream))
}

func TestEventStream_PublishResourceEvent(t *testing.T) {
	_, client := newTestRedis(t)
	s := NewEventStream(client, 0, time.Second, nil)
	ev := domain.ResourceEvent{Type: domain.ProjectCreated, OwnerID: uuid.New(), ResourceID: uuid.New(), Timestamp: time.Now()}

	require.NoError(t, s.PublishResourceEvent(context.Background(), ev))

	entries, err := client.XRange(context.Background(), ResourceStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ProjectCreated", entries[0].Values["event"])
	assert.Equal(t, ev.ResourceID.String(), entries[0].Values["resource_id"])
	assert.Contains(t, entries[0].Values["payload"], ev.OwnerID.String())
}

func TestEventStream_FailureHook(t *testing.T) {
	mr, client := newTestRedis(t)
	var failed []string
	s := NewEventStream(client, 0, 200*time.Millisecond, func(stream string) { failed = append(failed, stream) })
	mr.Close()

	err := s.PublishIdentityEvent(context.Background(), domain.IdentityEvent{Name: domain.EventUserLoggedIn, Email: "a@x.com"})
	assert.Error(t, err)
	assert.Equal(t, []string{IdentityStream}, failed)
}
