package services

import (
	"errors"
	"fmt"
	"time"

	"main/config"
	"main/model"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "tasktracker"

var tokenCfg config.ServerConfig

// InitTokenService stores the signing configuration. Must be called once at
// startup before any token is generated or parsed.
func InitTokenService(cfg config.ServerConfig) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT secret key not set")
	}
	tokenCfg = cfg
	return nil
}

// GenerateToken issues a short-lived access token for the user.
func GenerateToken(userID model.UserID) (string, error) {
	return signToken(userID, "access", tokenCfg.JWTExpiration)
}

// GenerateRefreshToken issues a long-lived refresh token for the user.
func GenerateRefreshToken(userID model.UserID) (string, error) {
	return signToken(userID, "refresh", tokenCfg.RefreshDuration)
}

func signToken(userID model.UserID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": string(userID),
		"type":    tokenType,
		"iss":     tokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(tokenCfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ParseAccessToken validates an access token and returns the user it was
// issued for. Refresh tokens are rejected here.
func ParseAccessToken(tokenString string) (model.UserID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tokenCfg.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	if tokenType, exists := claims["type"]; exists && tokenType == "refresh" {
		return "", errors.New("invalid token type")
	}
	if iss, ok := claims["iss"].(string); ok && iss != tokenIssuer {
		return "", errors.New("invalid token issuer")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid user ID in token")
	}
	return model.UserID(userID), nil
}
