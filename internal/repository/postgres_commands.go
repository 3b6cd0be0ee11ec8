package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/google/uuid"
)

// PostgresCommandsRepository 设备命令仓库 Postgres 实现
type PostgresCommandsRepository struct {
	db *sql.DB
}

// NewPostgresCommandsRepository 创建命令仓库
func NewPostgresCommandsRepository(db *sql.DB) *PostgresCommandsRepository {
	return &PostgresCommandsRepository{db: db}
}

var _ CommandsRepository = (*PostgresCommandsRepository)(nil)

// InsertCommand 写入一条 pending 状态的命令
func (r *PostgresCommandsRepository) InsertCommand(ctx context.Context, deviceID, command, createdBy string) (*domain.DeviceCommand, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	query := `
		INSERT INTO device_commands (id, device_id, command, status, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	cmd := &domain.DeviceCommand{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Command:   command,
		Status:    domain.CommandStatusPending,
		CreatedBy: sql.NullString{String: createdBy, Valid: createdBy != ""},
	}

	err := r.db.QueryRowContext(ctx, query,
		cmd.ID,
		cmd.DeviceID,
		cmd.Command,
		cmd.Status,
		cmd.CreatedBy,
	).Scan(&cmd.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert command: %w", err)
	}
	return cmd, nil
}

// UpdateCommandStatus 将 pending 命令置为 sent 或 failed
// WHERE status = 'pending' 保证状态只向前流转
func (r *PostgresCommandsRepository) UpdateCommandStatus(ctx context.Context, commandID, status string) error {
	if status != domain.CommandStatusSent && status != domain.CommandStatusFailed {
		return fmt.Errorf("invalid command status transition to %q", status)
	}

	query := `
		UPDATE device_commands
		SET status = $2
		WHERE id = $1 AND status = 'pending'
	`
	res, err := r.db.ExecContext(ctx, query, commandID, status)
	if err != nil {
		return fmt.Errorf("failed to update command status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("command %s not in pending state", commandID)
	}
	return nil
}

// MarkExecuted 设备上报执行完成
// 允许从 pending/sent/failed 进入 executed（崩溃窗口内设备可能执行了未标记 sent 的命令），
// 已 executed 的行不再改动
func (r *PostgresCommandsRepository) MarkExecuted(ctx context.Context, commandID string, executedAt time.Time) error {
	query := `
		UPDATE device_commands
		SET status = 'executed', executed_at = $2
		WHERE id = $1 AND status <> 'executed'
	`
	res, err := r.db.ExecContext(ctx, query, commandID, executedAt)
	if err != nil {
		return fmt.Errorf("failed to mark command executed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("command %s not found or already executed", commandID)
	}
	return nil
}

// ListRecentCommands 最新命令列表，按创建时间倒序
func (r *PostgresCommandsRepository) ListRecentCommands(ctx context.Context, limit int) ([]*domain.DeviceCommand, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, device_id, command, status, created_by, created_at, executed_at
		FROM device_commands
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	return scanCommands(rows)
}

// ListPendingCommands 设备轮询待执行命令，按创建时间正序
func (r *PostgresCommandsRepository) ListPendingCommands(ctx context.Context, deviceID string) ([]*domain.DeviceCommand, error) {
	query := `
		SELECT id, device_id, command, status, created_by, created_at, executed_at
		FROM device_commands
		WHERE device_id = $1 AND status IN ('pending', 'sent')
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending commands: %w", err)
	}
	defer rows.Close()

	return scanCommands(rows)
}

func scanCommands(rows *sql.Rows) ([]*domain.DeviceCommand, error) {
	var commands []*domain.DeviceCommand
	for rows.Next() {
		var c domain.DeviceCommand
		if err := rows.Scan(
			&c.ID,
			&c.DeviceID,
			&c.Command,
			&c.Status,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		commands = append(commands, &c)
	}
	return commands, rows.Err()
}
