// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisVerifier validates session tokens against records the external auth
// layer stores in Redis (one JSON value per token). A successful lookup
// refreshes the record's TTL, giving active admins a sliding expiration.
type RedisVerifier struct {
	conf         *Conf
	redisClient  *redis.Client
	redisContext context.Context
}

func (rv *RedisVerifier) sessionKey(token string) string {
	prefix := rv.conf.RedisPrefix
	if prefix == "" {
		prefix = "harlansw:session"
	}
	return fmt.Sprintf("%s:%s", prefix, token)
}

func (rv *RedisVerifier) Verify(req *http.Request) (UserInfo, error) {
	cookie, err := req.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return UserInfo{}, ErrNoSession
	}
	val, err := rv.redisClient.Get(rv.redisContext, rv.sessionKey(cookie.Value)).Result()
	if err == redis.Nil {
		return UserInfo{}, ErrInvalidSession

	} else if err != nil {
		return UserInfo{}, fmt.Errorf("failed to verify session: %w", err)
	}
	var user UserInfo
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return UserInfo{}, fmt.Errorf("failed to verify session: %w", err)
	}
	_, err = rv.redisClient.Expire(
		rv.redisContext,
		rv.sessionKey(cookie.Value),
		time.Duration(rv.conf.TTLSecs)*time.Second,
	).Result()
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to verify session: %w", err)
	}
	return user, nil
}

func NewRedisVerifier(conf *Conf) *RedisVerifier {
	return &RedisVerifier{
		conf: conf,
		redisClient: redis.NewClient(&redis.Options{
			Addr: conf.RedisAddr,
			DB:   conf.RedisDB,
		}),
		redisContext: context.Background(),
	}
}
