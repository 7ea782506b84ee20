package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

type RedisTokenBlacklist struct {
	Client *redis.Client
}

// TokenBlacklist is the global instance
var TokenBlacklist *RedisTokenBlacklist

// NewTokenBlacklist creates a new Redis-backed token blacklist
func NewTokenBlacklist(redisURL string) (*RedisTokenBlacklist, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTokenBlacklist{Client: client}, nil
}

// BlacklistTokens adds both access and refresh tokens to the blacklist
func BlacklistTokens(accessToken, refreshToken string) error {
	if TokenBlacklist == nil {
		return fmt.Errorf("token blacklist not initialized")
	}
	if err := TokenBlacklist.blacklistSingleToken(accessToken, "access"); err != nil {
		return err
	}
	return TokenBlacklist.blacklistSingleToken(refreshToken, "refresh")
}

// IsTokenBlacklisted reports whether the token was invalidated by a logout.
// A nil blacklist or a Redis failure treats the token as valid; the token's
// own expiry still bounds the exposure.
func IsTokenBlacklisted(tokenString string) bool {
	if TokenBlacklist == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	exists, err := TokenBlacklist.Client.Exists(ctx, blacklistKey(tokenString)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

func (tb *RedisTokenBlacklist) blacklistSingleToken(tokenString, tokenType string) error {
	if tokenString == "" {
		return fmt.Errorf("cannot blacklist empty %s token", tokenType)
	}

	// Keep the entry only as long as the token itself could still be used.
	ttl := 24 * time.Hour
	if exp := tokenExpiry(tokenString); !exp.IsZero() {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return nil // already expired, nothing to do
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tb.Client.Set(ctx, blacklistKey(tokenString), tokenType, ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist %s token: %w", tokenType, err)
	}
	return nil
}

// tokenExpiry extracts the exp claim without verifying the signature; the
// token is being thrown away, not trusted.
func tokenExpiry(tokenString string) time.Time {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}
	}
	return time.Unix(int64(exp), 0)
}

func blacklistKey(tokenString string) string {
	return fmt.Sprintf("blacklist:%s", tokenString)
}
