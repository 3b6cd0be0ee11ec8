package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/mqtt"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// CommandService 远程命令服务接口
type CommandService interface {
	// Dispatch 下发一条设备命令：落库 pending → 尝试中继发布 → 更新状态
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error)

	// ListRecent 最近命令，按创建时间倒序
	ListRecent(ctx context.Context, limit int) ([]*domain.DeviceCommand, error)

	// PendingForDevice 设备轮询未执行命令（pending/sent），按创建时间正序
	PendingForDevice(ctx context.Context, deviceID string) ([]*domain.DeviceCommand, error)

	// MarkExecuted 设备上报某命令执行完成
	MarkExecuted(ctx context.Context, commandID string, executedAt time.Time) error
}

// DispatchRequest 命令下发请求
type DispatchRequest struct {
	Command  string
	DeviceID string // 为空时使用默认设备
	UserID   string // 下发用户
}

// DispatchResponse 命令下发结果
type DispatchResponse struct {
	Command        *domain.DeviceCommand
	RelayMessageID string // 中继发布成功时的消息标识
	DeliveryNote   string // 投递方式说明（中继 / 设备轮询）
}

// commandService 实现
//
// 中继失败策略：发布失败或中继未配置时命令一律置为 sent，
// 物理设备会独立轮询 pending/sent 命令，中继只是加速通道，
// 它的故障不应让用户侧的下发操作失败。failed 状态保留给
// 设备明确上报执行失败的场景。
type commandService struct {
	commandsRepo    repository.CommandsRepository
	relay           mqtt.Relay // 可能为 nil（中继未配置）
	defaultDeviceID string
	logger          *zap.Logger
}

// NewCommandService 创建 CommandService 实例
// relay 传 nil 表示中继未配置，命令只能由设备轮询取走
func NewCommandService(commandsRepo repository.CommandsRepository, relay mqtt.Relay, defaultDeviceID string, logger *zap.Logger) CommandService {
	return &commandService{
		commandsRepo:    commandsRepo,
		relay:           relay,
		defaultDeviceID: defaultDeviceID,
		logger:          logger,
	}
}

// Dispatch 下发一条设备命令
func (s *commandService) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error) {
	// 1. 校验：不认识的命令不落库
	if !domain.IsValidCommand(req.Command) {
		return nil, ErrInvalidCommand
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = s.defaultDeviceID
	}

	// 2. 落库 pending；写库失败不再做任何后续动作
	cmd, err := s.commandsRepo.InsertCommand(ctx, deviceID, req.Command, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to persist command: %w", err)
	}

	// 3. 尝试中继发布（尽力而为）
	resp := &DispatchResponse{Command: cmd}
	if s.relay != nil {
		messageID, pubErr := s.relay.Publish(ctx, mqtt.CommandMessage{
			CommandID: cmd.ID,
			DeviceID:  cmd.DeviceID,
			Command:   cmd.Command,
			Timestamp: time.Now().UTC(),
		})
		if pubErr != nil {
			s.logger.Warn("Relay publish failed, device will poll for command",
				zap.String("command_id", cmd.ID),
				zap.Error(pubErr),
			)
			resp.DeliveryNote = "relay unavailable; device will pick up the command on its next poll"
		} else {
			resp.RelayMessageID = messageID
			resp.DeliveryNote = "command delivered via relay"
		}
	} else {
		resp.DeliveryNote = "relay not configured; device will pick up the command on its next poll"
	}

	// 4. 无论中继结果如何都置为 sent，命令对用户而言已经在投递中
	if err := s.commandsRepo.UpdateCommandStatus(ctx, cmd.ID, domain.CommandStatusSent); err != nil {
		s.logger.Error("Failed to update command status",
			zap.String("command_id", cmd.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update command status: %w", err)
	}
	cmd.Status = domain.CommandStatusSent

	return resp, nil
}

// ListRecent 最近命令列表
func (s *commandService) ListRecent(ctx context.Context, limit int) ([]*domain.DeviceCommand, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.commandsRepo.ListRecentCommands(ctx, limit)
}

// PendingForDevice 设备轮询未执行命令
// 中继只是加速通道，这条轮询路径保证中继故障时命令仍能送达
func (s *commandService) PendingForDevice(ctx context.Context, deviceID string) ([]*domain.DeviceCommand, error) {
	if deviceID == "" {
		deviceID = s.defaultDeviceID
	}
	return s.commandsRepo.ListPendingCommands(ctx, deviceID)
}

// MarkExecuted 设备上报某命令执行完成
func (s *commandService) MarkExecuted(ctx context.Context, commandID string, executedAt time.Time) error {
	if commandID == "" {
		return fmt.Errorf("command_id is required")
	}
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}
	return s.commandsRepo.MarkExecuted(ctx, commandID, executedAt)
}
