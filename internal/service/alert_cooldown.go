package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AlertCooldown 报警冷却器
// 同一(用户,报警类型,设备)在冷却窗口内只放行一次，抖动的传感器不会刷屏发邮件
type AlertCooldown interface {
	// Allow 返回 true 表示本次报警放行并占用冷却窗口
	Allow(ctx context.Context, userID, alertType, deviceID string) (bool, error)
}

// RedisAlertCooldown 基于 Redis SETNX+TTL 的冷却器实现
type RedisAlertCooldown struct {
	client *redis.Client
	window time.Duration
}

// NewRedisAlertCooldown 创建冷却器；window <= 0 表示不限流
func NewRedisAlertCooldown(client *redis.Client, window time.Duration) *RedisAlertCooldown {
	return &RedisAlertCooldown{
		client: client,
		window: window,
	}
}

var _ AlertCooldown = (*RedisAlertCooldown)(nil)

// Allow 尝试占用冷却窗口
func (c *RedisAlertCooldown) Allow(ctx context.Context, userID, alertType, deviceID string) (bool, error) {
	if c.window <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("alert:cooldown:%s:%s:%s", userID, alertType, deviceID)
	ok, err := c.client.SetNX(ctx, key, 1, c.window).Result()
	if err != nil {
		// Redis 不可用时放行而不是扣住报警
		return true, fmt.Errorf("cooldown check failed: %w", err)
	}
	return ok, nil
}
