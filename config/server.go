package config

import (
	"time"

	"main/utils"
)

type ServerConfig struct {
	Port            string
	RedisURL        string
	JWTSecret       string
	JWTExpiration   time.Duration
	RefreshDuration time.Duration
	SessionDuration time.Duration
	SweepInterval   time.Duration
}

func LoadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            utils.GetEnvAsString("PORT", "8080"),
		RedisURL:        utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:       utils.GetEnvAsString("JWT_SECRET_KEY", ""),
		JWTExpiration:   utils.GetEnvAsDuration("JWT_EXPIRATION_TIME", time.Hour),
		RefreshDuration: utils.GetEnvAsDuration("REFRESH_TOKEN_EXPIRATION_TIME", 7*24*time.Hour),
		SessionDuration: utils.GetEnvAsDuration("SESSION_DURATION", 24*time.Hour),
		SweepInterval:   utils.GetEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
	}
}
