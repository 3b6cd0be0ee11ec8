package service

import (
	"context"
	"testing"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCooldown(t *testing.T, window time.Duration) (*miniredis.Miniredis, *RedisAlertCooldown) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisAlertCooldown(client, window)
}

func TestCooldown_SecondAlertSuppressed(t *testing.T) {
	_, cooldown := setupCooldown(t, 15*time.Minute)
	ctx := context.Background()

	ok, err := cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCooldown_DistinctKeysIndependent(t *testing.T) {
	_, cooldown := setupCooldown(t, 15*time.Minute)
	ctx := context.Background()

	ok, _ := cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
	assert.True(t, ok)

	// 不同用户/类型/设备各自独立
	ok, _ = cooldown.Allow(ctx, "user-2", "food_low", "esp32-feeder-01")
	assert.True(t, ok)
	ok, _ = cooldown.Allow(ctx, "user-1", "water_low", "esp32-feeder-01")
	assert.True(t, ok)
	ok, _ = cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-02")
	assert.True(t, ok)
}

func TestCooldown_WindowExpires(t *testing.T) {
	mr, cooldown := setupCooldown(t, time.Minute)
	ctx := context.Background()

	ok, _ := cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
	assert.True(t, ok)

	mr.FastForward(61 * time.Second)

	ok, _ = cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
	assert.True(t, ok)
}

func TestCooldown_DisabledWindow(t *testing.T) {
	_, cooldown := setupCooldown(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := cooldown.Allow(ctx, "user-1", "food_low", "esp32-feeder-01")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCooldown_RedisDown_FailsOpen(t *testing.T) {
	mr, cooldown := setupCooldown(t, time.Minute)
	mr.Close()

	ok, err := cooldown.Allow(context.Background(), "user-1", "food_low", "esp32-feeder-01")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestAlertService_CooldownSuppressesRepeat(t *testing.T) {
	_, cooldown := setupCooldown(t, 15*time.Minute)

	repo := &fakeNotificationsRepo{
		settings: []*domain.NotificationSettings{userSettings("user-1", 200)},
		recipients: map[string][]*domain.NotificationRecipient{
			"user-1": {{ID: "r1", UserID: "user-1", Email: "owner@example.com"}},
		},
	}
	mailer := &fakeMailer{}
	svc := NewAlertService(repo, mailer, cooldown, zap.NewNop())

	obs := Observation{DeviceID: "esp32-feeder-01", FoodWeight: floatPtr(150)}
	svc.EvaluateAndNotify(context.Background(), obs)
	svc.EvaluateAndNotify(context.Background(), obs)

	// 第二次评估落在冷却窗口内：不发邮件也不写历史
	assert.Len(t, mailer.sends, 1)
	assert.Len(t, repo.history, 1)
}
