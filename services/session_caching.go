package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"main/model"

	"github.com/redis/go-redis/v9"
)

type SessionCache struct {
	client *redis.Client
}

// GlobalSessionCache is set at startup; a nil cache means sessions are
// served from Mongo only.
var GlobalSessionCache *SessionCache

// NewSessionCache creates and initializes a new session cache
func NewSessionCache(redisURL string) (*SessionCache, error) {
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

	return &SessionCache{client: client}, nil
}

// SetSession caches an individual session with a TTL matching its expiry.
func (sc *SessionCache) SetSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("cannot cache nil session")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session has already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ctx := context.Background()
	key := sessionKey(session.SessionID)
	if err := sc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache session: %w", err)
	}

	// Track membership so all of a user's cached sessions can be dropped at once.
	userKey := userSessionsKey(string(session.UserID))
	if err := sc.client.SAdd(ctx, userKey, session.SessionID).Err(); err != nil {
		return fmt.Errorf("failed to track session for user: %w", err)
	}
	sc.client.Expire(ctx, userKey, ttl)

	return nil
}

// GetSession retrieves a session from cache. Returns nil, nil on a miss.
func (sc *SessionCache) GetSession(sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ctx := context.Background()
	data, err := sc.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = sc.DeleteSession(sessionID)
		return nil, nil
	}
	return &session, nil
}

// DeleteSession removes a session from the cache.
func (sc *SessionCache) DeleteSession(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	return sc.client.Del(context.Background(), sessionKey(sessionID)).Err()
}

// InvalidateUserSessions drops every cached session belonging to a user.
func (sc *SessionCache) InvalidateUserSessions(userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}

	ctx := context.Background()
	userKey := userSessionsKey(userID)

	sessionIDs, err := sc.client.SMembers(ctx, userKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	for _, id := range sessionIDs {
		_ = sc.client.Del(ctx, sessionKey(id)).Err()
	}
	return sc.client.Del(ctx, userKey).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func userSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}
