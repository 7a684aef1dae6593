package adapters

import (
	"context"
	"log/slog"

	"stocksim_backend/internal/feature/market/domain/entity"
	"stocksim_backend/internal/feature/market/usecase"
	"stocksim_backend/internal/platform/messaging"
)

// kafkaTickPublisher は価格ティックを銘柄IDをキーとして Kafka に送信します。
type kafkaTickPublisher struct {
	producer *messaging.Producer
}

var _ usecase.TickPublisher = (*kafkaTickPublisher)(nil)

// NewKafkaTickPublisher はkafkaTickPublisherの新しいインスタンスを生成します。
func NewKafkaTickPublisher(producer *messaging.Producer) *kafkaTickPublisher {
	return &kafkaTickPublisher{producer: producer}
}

func (p *kafkaTickPublisher) PublishTicks(ctx context.Context, ticks []entity.PriceTick) error {
	msgs := make([]messaging.Message, 0, len(ticks))
	for _, t := range ticks {
		msgs = append(msgs, messaging.Message{Key: t.StockID, Value: t})
	}
	return p.producer.Publish(ctx, msgs...)
}

// logTickPublisher はブローカー未設定時に価格ティックをログ出力のみ行います。
type logTickPublisher struct{}

var _ usecase.TickPublisher = logTickPublisher{}

// NewLogTickPublisher はlogTickPublisherを生成します。
func NewLogTickPublisher() logTickPublisher {
	return logTickPublisher{}
}

func (logTickPublisher) PublishTicks(ctx context.Context, ticks []entity.PriceTick) error {
	for _, t := range ticks {
		slog.Debug("price tick",
			"stock_id", t.StockID,
			"symbol", t.Symbol,
			"price", t.Price.String(),
			"was_jump", t.WasJump,
		)
	}
	return nil
}
