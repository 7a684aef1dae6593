package di

import (
	"log/slog"
	"os"
	"time"

	jwtmw "stocksim_backend/internal/platform/jwt"
)

// defaultJWTExpiration はJWT_EXPIRATION未設定時のトークン有効期間です。
const defaultJWTExpiration = 24 * time.Hour

// NewJWTGenerator creates a JWT generator from JWT_SECRET and JWT_EXPIRATION.
func NewJWTGenerator() jwtmw.Generator {
	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	expiration := defaultJWTExpiration
	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			slog.Warn("invalid JWT_EXPIRATION, using default", "value", v, "default", defaultJWTExpiration)
		} else {
			expiration = d
		}
	}
	return jwtmw.NewGenerator(secret, expiration)
}
