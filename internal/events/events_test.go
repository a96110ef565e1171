package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	channel string
	payload []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisPublisher_Publish(t *testing.T) {
	fake := &fakeRedis{}
	p := &RedisPublisher{client: fake, prefix: "tender"}
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), New(ResponseCreated, "t-42", "r-1", at)))

	assert.Equal(t, "tender:t-42", fake.channel)
	var got Event
	require.NoError(t, json.Unmarshal(fake.payload, &got))
	assert.Equal(t, ResponseCreated, got.Type)
	assert.Equal(t, "r-1", got.RecordID)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestRedisPublisher_Error(t *testing.T) {
	fake := &fakeRedis{err: errors.New("connection refused")}
	p := &RedisPublisher{client: fake, prefix: "tender"}

	err := p.Publish(context.Background(), New(MessageCreated, "t-1", "m-1", time.Now()))
	assert.ErrorContains(t, err, "connection refused")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), New(ResponseUpdated, "t", "r", time.Now())))
	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ResponseUpdated, events[0].Type)
}
