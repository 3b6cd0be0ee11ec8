package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDevicesRepo in-memory DevicesRepository
type fakeDevicesRepo struct {
	ensured  []string
	statuses []*domain.DeviceStatus
}

func (f *fakeDevicesRepo) ListDevices(_ context.Context) ([]*domain.DeviceWithStatus, error) {
	return nil, nil
}

func (f *fakeDevicesRepo) UpdateDevice(_ context.Context, req repository.UpdateDeviceRequest) (*domain.Device, error) {
	return &domain.Device{DeviceID: req.DeviceID, Name: req.Name}, nil
}

func (f *fakeDevicesRepo) EnsureDevice(_ context.Context, deviceID string) error {
	f.ensured = append(f.ensured, deviceID)
	return nil
}

func (f *fakeDevicesRepo) GetStatus(_ context.Context, _ string) (*domain.DeviceStatus, error) {
	if len(f.statuses) == 0 {
		return nil, nil
	}
	return f.statuses[len(f.statuses)-1], nil
}

func (f *fakeDevicesRepo) UpsertStatus(_ context.Context, status *domain.DeviceStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func rawPayload(t *testing.T, typ string, data any) WebhookPayload {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return WebhookPayload{Type: typ, Data: raw}
}

func setupIngest(t *testing.T) (*fakeDevicesRepo, *fakeReadingsRepo, *fakeEventsRepo, *fakeCommandsRepo, *redis.Client, IngestService) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	devices := &fakeDevicesRepo{}
	readings := &fakeReadingsRepo{}
	events := &fakeEventsRepo{}
	commands := &fakeCommandsRepo{}
	svc := NewIngestService(devices, readings, events, commands, client, "feeder:observations", "esp32-feeder-01", zap.NewNop())
	return devices, readings, events, commands, client, svc
}

func TestProcess_SensorReading(t *testing.T) {
	devices, readings, _, _, client, svc := setupIngest(t)
	ctx := context.Background()

	payload := rawPayload(t, PayloadTypeSensorReading, map[string]any{
		"food_weight":        320.5,
		"water_level_ok":     true,
		"food_pir_triggered": true,
	})
	require.NoError(t, svc.Process(ctx, payload))

	// 未自报 device_id 回落到默认设备
	assert.Equal(t, []string{"esp32-feeder-01"}, devices.ensured)
	require.Len(t, readings.readings, 1)
	assert.Equal(t, "esp32-feeder-01", readings.readings[0].DeviceID)

	// 在线状态已刷新
	require.Len(t, devices.statuses, 1)
	assert.True(t, devices.statuses[0].IsOnline)
	assert.Equal(t, "esp32-feeder-01", devices.statuses[0].DeviceID)
	assert.True(t, devices.statuses[0].LastSeen.Valid)
	assert.WithinDuration(t, time.Now(), devices.statuses[0].LastSeen.Time, time.Minute)

	// 观测已进入报警流
	length, err := client.XLen(ctx, "feeder:observations").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)
}

func TestProcess_DispenseEvent(t *testing.T) {
	_, _, events, _, client, svc := setupIngest(t)
	ctx := context.Background()

	payload := rawPayload(t, PayloadTypeDispenseEvent, map[string]any{
		"device_id":        "esp32-feeder-02",
		"event_type":       "food",
		"trigger_source":   "pir",
		"amount_dispensed": 25.0,
	})
	require.NoError(t, svc.Process(ctx, payload))

	require.Len(t, events.events, 1)
	assert.Equal(t, "esp32-feeder-02", events.events[0].DeviceID)
	assert.Equal(t, domain.EventTypeFood, events.events[0].EventType)

	// 投放事件不触发报警流
	length, err := client.XLen(ctx, "feeder:observations").Result()
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestProcess_CommandExecuted(t *testing.T) {
	_, _, _, commands, _, svc := setupIngest(t)

	payload := rawPayload(t, PayloadTypeCommandExecuted, map[string]any{
		"command_id": "cmd-1",
	})
	require.NoError(t, svc.Process(context.Background(), payload))
	assert.Equal(t, []string{"cmd-1:executed"}, commands.statusUpdates)
}

func TestProcess_CommandExecuted_MissingID(t *testing.T) {
	_, _, _, _, _, svc := setupIngest(t)

	payload := rawPayload(t, PayloadTypeCommandExecuted, map[string]any{})
	require.Error(t, svc.Process(context.Background(), payload))
}

func TestProcess_UnknownType(t *testing.T) {
	_, _, _, _, _, svc := setupIngest(t)

	err := svc.Process(context.Background(), WebhookPayload{Type: "telemetry_v2"})
	require.ErrorIs(t, err, ErrUnknownPayloadType)
}
