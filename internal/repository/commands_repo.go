package repository

import (
	"context"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// CommandsRepository 设备命令仓库接口
// 状态只允许向前流转（pending → sent|failed → executed），由 SQL 条件保证
type CommandsRepository interface {
	// InsertCommand 写入一条 pending 状态的命令，返回完整命令行
	InsertCommand(ctx context.Context, deviceID, command, createdBy string) (*domain.DeviceCommand, error)

	// UpdateCommandStatus 将 pending 命令置为 sent 或 failed
	UpdateCommandStatus(ctx context.Context, commandID, status string) error

	// MarkExecuted 设备上报执行完成
	MarkExecuted(ctx context.Context, commandID string, executedAt time.Time) error

	// ListRecentCommands 最新命令列表，按创建时间倒序
	ListRecentCommands(ctx context.Context, limit int) ([]*domain.DeviceCommand, error)

	// ListPendingCommands 设备轮询待执行命令
	ListPendingCommands(ctx context.Context, deviceID string) ([]*domain.DeviceCommand, error)
}
