package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingNotifier struct {
	fail string
	rec  Recorder
}

func (f *failingNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Event == f.fail {
		return errors.New("broker unavailable")
	}
	return f.rec.Notify(ctx, n)
}

func TestDispatcher_DeliversAndCountsFailures(t *testing.T) {
	notifier := &failingNotifier{fail: TenderClosed}
	var (
		mu     sync.Mutex
		failed []string
	)
	d := NewDispatcher(notifier, time.Second, zerolog.Nop(), func(event string) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, event)
	})

	d.Dispatch(
		Notification{Event: OrderCreated, Recipient: "buyer-1"},
		Notification{Event: OrderCreated, Recipient: "seller-1"},
		Notification{Event: TenderClosed, Recipient: "seller-2"},
	)
	d.Dispatch()
	d.Wait()

	assert.Len(t, notifier.rec.Sent(), 2)
	assert.Equal(t, []string{TenderClosed}, failed)
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifier_KeysByRecipient(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaNotifier{writer: w}

	err := k.Notify(context.Background(), Notification{
		Event:     ResponseAccepted,
		Recipient: "seller-7",
		Fields:    map[string]string{"tenderId": "t1"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "seller-7", string(w.msgs[0].Key))

	var got Notification
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ResponseAccepted, got.Event)
	assert.Equal(t, "t1", got.Fields["tenderId"])

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "marketplace-notifications")
	assert.Equal(t, "marketplace-notifications", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
