// Package di provides dependency injection factories for creating application components.
package di

import (
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	marketadapters "stocksim_backend/internal/feature/market/adapters"
	"stocksim_backend/internal/feature/market/domain/simulator"
	marketusecase "stocksim_backend/internal/feature/market/usecase"
	"stocksim_backend/internal/platform/cache"
	"stocksim_backend/internal/platform/config"
	"stocksim_backend/internal/platform/messaging"
)

// historyCacheTTL は価格履歴キャッシュの有効期間です。ティック間隔に合わせています。
const historyCacheTTL = time.Minute

// NewPriceHistoryRepository creates a PriceHistoryRepository implementation.
// If Redis is available, reads are served through the Redis cache decorator.
func NewPriceHistoryRepository(db *gorm.DB, rdb *redis.Client) marketusecase.PriceHistoryRepository {
	repo := marketadapters.NewPriceHistoryRepository(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingPriceHistoryRepository(rdb, historyCacheTTL, repo, "history")
}

// NewTickPublisher creates the price tick publisher.
// With KAFKA_BROKERS set it publishes to Kafka, otherwise ticks are only logged.
// The returned close function releases the Kafka writer.
func NewTickPublisher(cfg *config.Config) (marketusecase.TickPublisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return marketadapters.NewLogTickPublisher(), func() error { return nil }
	}
	producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.KafkaPriceTopic)
	slog.Info("publishing price ticks to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPriceTopic)
	return marketadapters.NewKafkaTickPublisher(producer), producer.Close
}

// NewSimulator creates the price simulator. SIM_SEED=0 seeds from the clock.
func NewSimulator(cfg *config.Config) *simulator.Simulator {
	seed := cfg.SimSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return simulator.New(simulator.NewSource(seed), simulator.WithJumpUpProbability(cfg.SimJumpUpProbability))
}
