// Package messaging は segmentio/kafka-go を使ったJSONメッセージの送信を提供します。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter は kafka.Writer のうち送信に必要な部分です（テストで差し替え可能）。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message はキー付きのJSONメッセージです。同じキーは同じパーティションに送られます。
type Message struct {
	Key   string
	Value any
}

// Producer は1つのトピックにJSONメッセージを送信します。
type Producer struct {
	writer MessageWriter
	topic  string
}

// NewProducer は brokers 上の topic に送信する Producer を生成します。
func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		BatchTimeout:           50 * time.Millisecond,
	}
	slog.Info("kafka producer created", "brokers", brokers, "topic", topic)
	return NewProducerWithWriter(w, topic)
}

// NewProducerWithWriter は任意の MessageWriter で Producer を生成します。
func NewProducerWithWriter(w MessageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic}
}

// Publish はメッセージをまとめて送信します。
func (p *Producer) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		out = append(out, kafka.Message{Key: []byte(m.Key), Value: data})
	}

	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return fmt.Errorf("failed to write %d messages to %s: %w", len(out), p.topic, err)
	}
	slog.Debug("kafka messages sent", "topic", p.topic, "count", len(out))
	return nil
}

// Close はバッファ済みのメッセージを送信して接続を閉じます。
func (p *Producer) Close() error {
	return p.writer.Close()
}
