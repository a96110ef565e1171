package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier публикует уведомления в топик Kafka; ключ сообщения - получатель.
type KafkaNotifier struct {
	writer messageWriter
}

// NewKafkaWriter создаёт writer, распределяющий сообщения по партициям по ключу.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaNotifier создаёт KafkaNotifier поверх writer.
func NewKafkaNotifier(writer *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// Notify реализует Notifier.
func (k *KafkaNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(n.Recipient), Value: payload}); err != nil {
		return fmt.Errorf("failed to write notification %s: %w", n.Event, err)
	}
	return nil
}

// Close закрывает writer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
