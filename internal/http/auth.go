package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	redisclient "github.com/danishayman/cpc357-project/pkg/redis"

	"github.com/go-redis/redis/v8"
)

// SessionVerifier 会话令牌校验接口
type SessionVerifier interface {
	// Verify 校验令牌，返回 userID；令牌无效/过期返回空串
	Verify(ctx context.Context, token string) (string, error)
}

// RedisSessionStore 基于 Redis 的会话存储
// 登录服务写入 session:<token> -> userID，这里只做读取校验
type RedisSessionStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisSessionStore 创建 Redis 会话存储
func NewRedisSessionStore(client *redisclient.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Verify 校验令牌并滑动续期
func (s *RedisSessionStore) Verify(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, sessionKey(token), s.ttl).Err()
	}
	return userID, nil
}

// tokenFromReq 从 Authorization: Bearer 或 session cookie 取令牌
func tokenFromReq(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

// userIDFromReq 解析当前登录用户；未登录时写 401 并返回 ok=false
func userIDFromReq(w http.ResponseWriter, r *http.Request, sessions SessionVerifier) (string, bool) {
	token := tokenFromReq(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return "", false
	}
	userID, err := sessions.Verify(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("session lookup failed"))
		return "", false
	}
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return "", false
	}
	return userID, true
}
