package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"
	redisclient "github.com/danishayman/cpc357-project/pkg/redis"

	"go.uber.org/zap"
)

// Webhook 载荷类型
const (
	PayloadTypeSensorReading   = "sensor_reading"
	PayloadTypeDispenseEvent   = "dispense_event"
	PayloadTypeCommandExecuted = "command_executed"
)

// ErrUnknownPayloadType 未知的 Webhook 载荷类型
var ErrUnknownPayloadType = fmt.Errorf("unknown payload type")

// WebhookPayload 设备上报载荷信封
type WebhookPayload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// sensorReadingData 传感器读数载荷
type sensorReadingData struct {
	DeviceID          string   `json:"device_id"`
	FoodWeight        *float64 `json:"food_weight"`
	WaterLevelOK      *bool    `json:"water_level_ok"`
	RainValue         *float64 `json:"rain_value"`
	IsRaining         *bool    `json:"is_raining"`
	FoodPIRTriggered  bool     `json:"food_pir_triggered"`
	WaterPIRTriggered bool     `json:"water_pir_triggered"`
	IPAddress         *string  `json:"ip_address"`
	FirmwareVersion   *string  `json:"firmware_version"`
}

// dispenseEventData 投放事件载荷
type dispenseEventData struct {
	DeviceID         string   `json:"device_id"`
	EventType        string   `json:"event_type"`
	TriggerSource    string   `json:"trigger_source"`
	AmountDispensed  *float64 `json:"amount_dispensed"`
	FoodWeightBefore *float64 `json:"food_weight_before"`
	FoodWeightAfter  *float64 `json:"food_weight_after"`
}

// commandExecutedData 命令回执载荷
type commandExecutedData struct {
	CommandID string `json:"command_id"`
}

// IngestService 设备数据摄入接口（Webhook 入口背后的处理逻辑）
type IngestService interface {
	// Process 处理一条设备上报，按 type 分发
	Process(ctx context.Context, payload WebhookPayload) error
}

// ingestService 实现
type ingestService struct {
	devicesRepo     repository.DevicesRepository
	readingsRepo    repository.ReadingsRepository
	eventsRepo      repository.EventsRepository
	commandsRepo    repository.CommandsRepository
	redisClient     *redisclient.Client // 可为 nil（报警交接降级为跳过）
	alertStream     string
	defaultDeviceID string
	logger          *zap.Logger
}

// NewIngestService 创建 IngestService 实例
func NewIngestService(
	devicesRepo repository.DevicesRepository,
	readingsRepo repository.ReadingsRepository,
	eventsRepo repository.EventsRepository,
	commandsRepo repository.CommandsRepository,
	redisClient *redisclient.Client,
	alertStream string,
	defaultDeviceID string,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		devicesRepo:     devicesRepo,
		readingsRepo:    readingsRepo,
		eventsRepo:      eventsRepo,
		commandsRepo:    commandsRepo,
		redisClient:     redisClient,
		alertStream:     alertStream,
		defaultDeviceID: defaultDeviceID,
		logger:          logger,
	}
}

// Process 处理一条设备上报
func (s *ingestService) Process(ctx context.Context, payload WebhookPayload) error {
	switch payload.Type {
	case PayloadTypeSensorReading:
		return s.processSensorReading(ctx, payload.Data)
	case PayloadTypeDispenseEvent:
		return s.processDispenseEvent(ctx, payload.Data)
	case PayloadTypeCommandExecuted:
		return s.processCommandExecuted(ctx, payload.Data)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPayloadType, payload.Type)
	}
}

// processSensorReading 传感器读数：落库 + 刷新设备在线状态 + 交给报警引擎
func (s *ingestService) processSensorReading(ctx context.Context, raw json.RawMessage) error {
	var data sensorReadingData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid sensor_reading payload: %w", err)
	}
	deviceID := s.resolveDeviceID(data.DeviceID)

	// 1. 设备首次上报时补建设备行
	if err := s.devicesRepo.EnsureDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to ensure device: %w", err)
	}

	// 2. 读数落库
	reading, err := s.readingsRepo.InsertReading(ctx, repository.NewSensorReading{
		DeviceID:          deviceID,
		FoodWeight:        data.FoodWeight,
		WaterLevelOK:      data.WaterLevelOK,
		RainValue:         data.RainValue,
		IsRaining:         data.IsRaining,
		FoodPIRTriggered:  data.FoodPIRTriggered,
		WaterPIRTriggered: data.WaterPIRTriggered,
	})
	if err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}

	// 3. 刷新设备在线状态
	now := time.Now()
	status := &domain.DeviceStatus{
		DeviceID:  deviceID,
		IsOnline:  true,
		LastSeen:  sql.NullTime{Time: now, Valid: true},
		UpdatedAt: now,
	}
	if data.IPAddress != nil {
		status.IPAddress = sql.NullString{String: *data.IPAddress, Valid: true}
	}
	if data.FirmwareVersion != nil {
		status.FirmwareVersion = sql.NullString{String: *data.FirmwareVersion, Valid: true}
	}
	if err := s.devicesRepo.UpsertStatus(ctx, status); err != nil {
		// 状态刷新失败不影响读数已落库的事实
		s.logger.Error("Failed to upsert device status",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}

	// 4. 观测交给报警引擎（fire-and-forget，失败只记日志）
	s.publishObservation(ctx, Observation{
		DeviceID:     deviceID,
		FoodWeight:   data.FoodWeight,
		WaterLevelOK: data.WaterLevelOK,
	})

	s.logger.Debug("Sensor reading ingested",
		zap.String("device_id", deviceID),
		zap.String("reading_id", reading.ID),
	)
	return nil
}

// publishObservation 把观测推到 Redis Stream，报警消费者异步处理
func (s *ingestService) publishObservation(ctx context.Context, obs Observation) {
	if s.redisClient == nil {
		return
	}
	if _, err := redisclient.PublishJSONToStream(ctx, s.redisClient, s.alertStream, obs); err != nil {
		s.logger.Error("Failed to publish observation to alert stream",
			zap.String("stream", s.alertStream),
			zap.String("device_id", obs.DeviceID),
			zap.Error(err),
		)
	}
}

// processDispenseEvent 投放事件落库
func (s *ingestService) processDispenseEvent(ctx context.Context, raw json.RawMessage) error {
	var data dispenseEventData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid dispense_event payload: %w", err)
	}
	deviceID := s.resolveDeviceID(data.DeviceID)

	if err := s.devicesRepo.EnsureDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to ensure device: %w", err)
	}

	event, err := s.eventsRepo.InsertEvent(ctx, repository.NewDispenseEvent{
		DeviceID:         deviceID,
		EventType:        data.EventType,
		TriggerSource:    data.TriggerSource,
		AmountDispensed:  data.AmountDispensed,
		FoodWeightBefore: data.FoodWeightBefore,
		FoodWeightAfter:  data.FoodWeightAfter,
	})
	if err != nil {
		return fmt.Errorf("failed to insert dispense event: %w", err)
	}

	s.logger.Debug("Dispense event ingested",
		zap.String("device_id", deviceID),
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
	)
	return nil
}

// processCommandExecuted 命令回执：状态置为 executed
func (s *ingestService) processCommandExecuted(ctx context.Context, raw json.RawMessage) error {
	var data commandExecutedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid command_executed payload: %w", err)
	}
	if data.CommandID == "" {
		return fmt.Errorf("command_executed payload missing command_id")
	}

	if err := s.commandsRepo.MarkExecuted(ctx, data.CommandID, time.Now()); err != nil {
		return fmt.Errorf("failed to mark command executed: %w", err)
	}

	s.logger.Info("Command acknowledged by device",
		zap.String("command_id", data.CommandID),
	)
	return nil
}

// resolveDeviceID 设备未自报 ID 时回落到默认设备
func (s *ingestService) resolveDeviceID(deviceID string) string {
	if deviceID == "" {
		return s.defaultDeviceID
	}
	return deviceID
}
