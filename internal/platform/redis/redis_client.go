// Package redis は価格履歴キャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Options はRedis接続の設定です。
type Options struct {
	Host     string
	Port     string
	Password string
}

// LoadOptionsFromEnv はREDIS_HOST / REDIS_PORT / REDIS_PASSWORD を読み込みます。
func LoadOptionsFromEnv() Options {
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	return Options{
		Host:     os.Getenv("REDIS_HOST"),
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

// Enabled はキャッシュを使うかどうかを返します。REDIS_HOST が空なら無効です。
func (o Options) Enabled() bool {
	return o.Host != ""
}

// NewRedisClient は接続確認済みのクライアントを返します。
// Redisが無効な場合は (nil, nil) を返し、呼び出し側はキャッシュなしで動作します。
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	if !opts.Enabled() {
		slog.Info("REDIS_HOST not set; running without cache")
		return nil, nil
	}

	addr := opts.Host + ":" + opts.Port
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       0,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", addr, "error", err)
		_ = rdb.Close()
		return nil, err
	}

	slog.Info("Redis connection successful", "address", addr)
	return rdb, nil
}
