package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "feeder/commands", cfg.MQTT.TopicPrefix)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, "feeder:observations", cfg.Alert.Stream)
	assert.Equal(t, "alert-engine", cfg.Alert.ConsumerGroup)
	assert.Equal(t, int64(10), cfg.Alert.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.Alert.Cooldown)

	assert.Equal(t, "esp32-feeder-01", cfg.DefaultDeviceID)
	assert.Equal(t, "Asia/Kuala_Lumpur", cfg.StatsTimezone)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("ALERT_COOLDOWN_SECONDS", "0")
	t.Setenv("DEFAULT_DEVICE_ID", "esp32-feeder-02")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Alert.Cooldown)
	assert.Equal(t, "esp32-feeder-02", cfg.DefaultDeviceID)
}
