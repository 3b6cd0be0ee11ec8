package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresNotificationsRepository 通知仓库 Postgres 实现
type PostgresNotificationsRepository struct {
	db *sql.DB
}

// NewPostgresNotificationsRepository 创建通知仓库
func NewPostgresNotificationsRepository(db *sql.DB) *PostgresNotificationsRepository {
	return &PostgresNotificationsRepository{db: db}
}

var _ NotificationsRepository = (*PostgresNotificationsRepository)(nil)

const settingsColumns = `user_id, email, email_enabled, food_low_threshold, water_low_enabled, device_offline_enabled, updated_at`

// GetSettings 获取用户通知设置，未保存过返回 nil
func (r *PostgresNotificationsRepository) GetSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT ` + settingsColumns + `
		FROM notification_settings
		WHERE user_id = $1
	`

	var s domain.NotificationSettings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.Email,
		&s.EmailEnabled,
		&s.FoodLowThreshold,
		&s.WaterLowEnabled,
		&s.DeviceOfflineEnabled,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}
	return &s, nil
}

// UpsertSettings 按 user_id 保存通知设置
func (r *PostgresNotificationsRepository) UpsertSettings(ctx context.Context, settings *domain.NotificationSettings) (*domain.NotificationSettings, error) {
	if settings.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		INSERT INTO notification_settings (user_id, email, email_enabled, food_low_threshold, water_low_enabled, device_offline_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET email = EXCLUDED.email,
		              email_enabled = EXCLUDED.email_enabled,
		              food_low_threshold = EXCLUDED.food_low_threshold,
		              water_low_enabled = EXCLUDED.water_low_enabled,
		              device_offline_enabled = EXCLUDED.device_offline_enabled,
		              updated_at = NOW()
		RETURNING ` + settingsColumns + `
	`

	var s domain.NotificationSettings
	err := r.db.QueryRowContext(ctx, query,
		settings.UserID,
		settings.Email,
		settings.EmailEnabled,
		settings.FoodLowThreshold,
		settings.WaterLowEnabled,
		settings.DeviceOfflineEnabled,
	).Scan(
		&s.UserID,
		&s.Email,
		&s.EmailEnabled,
		&s.FoodLowThreshold,
		&s.WaterLowEnabled,
		&s.DeviceOfflineEnabled,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert notification settings: %w", err)
	}
	return &s, nil
}

// ListEnabledSettings 查询 email_enabled=true 的设置行
// filter.UserID 非空时只查该用户；filter.AlertType 为 water_low/device_offline 时附加开关过滤
func (r *PostgresNotificationsRepository) ListEnabledSettings(ctx context.Context, filter SettingsFilter) ([]*domain.NotificationSettings, error) {
	query := `
		SELECT ` + settingsColumns + `
		FROM notification_settings
		WHERE email_enabled = TRUE
	`
	args := []any{}
	argN := 1
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argN)
		args = append(args, filter.UserID)
		argN++
	}
	switch filter.AlertType {
	case domain.AlertTypeWaterLow:
		query += " AND water_low_enabled = TRUE"
	case domain.AlertTypeDeviceOffline:
		query += " AND device_offline_enabled = TRUE"
	}
	query += " ORDER BY user_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled settings: %w", err)
	}
	defer rows.Close()

	var result []*domain.NotificationSettings
	for rows.Next() {
		var s domain.NotificationSettings
		if err := rows.Scan(
			&s.UserID,
			&s.Email,
			&s.EmailEnabled,
			&s.FoodLowThreshold,
			&s.WaterLowEnabled,
			&s.DeviceOfflineEnabled,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification settings: %w", err)
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

// ListRecipients 用户的收件人列表，按添加时间正序
func (r *PostgresNotificationsRepository) ListRecipients(ctx context.Context, userID string) ([]*domain.NotificationRecipient, error) {
	query := `
		SELECT id, user_id, email, created_at
		FROM notification_recipients
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []*domain.NotificationRecipient
	for rows.Next() {
		var rec domain.NotificationRecipient
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Email, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, &rec)
	}
	return recipients, rows.Err()
}

// AddRecipient 添加收件人；(user_id,email) 唯一约束冲突返回 ErrDuplicateRecipient
func (r *PostgresNotificationsRepository) AddRecipient(ctx context.Context, userID, email string) (*domain.NotificationRecipient, error) {
	if userID == "" || email == "" {
		return nil, fmt.Errorf("user_id and email are required")
	}

	query := `
		INSERT INTO notification_recipients (id, user_id, email)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	rec := &domain.NotificationRecipient{
		ID:     uuid.NewString(),
		UserID: userID,
		Email:  email,
	}

	err := r.db.QueryRowContext(ctx, query, rec.ID, rec.UserID, rec.Email).Scan(&rec.CreatedAt)
	if err != nil {
		// 23505 = unique_violation
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicateRecipient
		}
		return nil, fmt.Errorf("failed to add recipient: %w", err)
	}
	return rec, nil
}

// DeleteRecipient 删除收件人（限本人的行）
func (r *PostgresNotificationsRepository) DeleteRecipient(ctx context.Context, userID, recipientID string) error {
	query := `
		DELETE FROM notification_recipients
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, recipientID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recipient not found")
	}
	return nil
}

// InsertAlertHistory 追加一条报警历史
func (r *PostgresNotificationsRepository) InsertAlertHistory(ctx context.Context, history *domain.AlertHistory) error {
	if history.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if history.ID == "" {
		history.ID = uuid.NewString()
	}

	query := `
		INSERT INTO alert_history (id, user_id, alert_type, message, email_sent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sent_at
	`

	err := r.db.QueryRowContext(ctx, query,
		history.ID,
		history.UserID,
		history.AlertType,
		history.Message,
		history.EmailSent,
	).Scan(&history.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert history: %w", err)
	}
	return nil
}

// ListAlertHistory 用户报警历史，按发送时间倒序
func (r *PostgresNotificationsRepository) ListAlertHistory(ctx context.Context, userID string, limit int) ([]*domain.AlertHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, alert_type, message, email_sent, sent_at
		FROM alert_history
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert history: %w", err)
	}
	defer rows.Close()

	var history []*domain.AlertHistory
	for rows.Next() {
		var h domain.AlertHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.AlertType, &h.Message, &h.EmailSent, &h.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert history: %w", err)
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}
