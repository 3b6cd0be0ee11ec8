package repository

import (
	"context"
	"errors"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// ErrDuplicateRecipient 同一用户重复添加同一收件邮箱
var ErrDuplicateRecipient = errors.New("recipient email already exists for this user")

// SettingsFilter 通知设置查询过滤
type SettingsFilter struct {
	UserID    string // 非空时只查该用户（手动测试报警路径）
	AlertType string // water_low / device_offline 时附加对应开关过滤
}

// NotificationsRepository 通知设置/收件人/报警历史仓库接口
type NotificationsRepository interface {
	// GetSettings 获取用户通知设置，未保存过返回 nil
	GetSettings(ctx context.Context, userID string) (*domain.NotificationSettings, error)

	// UpsertSettings 按 user_id 保存通知设置
	UpsertSettings(ctx context.Context, settings *domain.NotificationSettings) (*domain.NotificationSettings, error)

	// ListEnabledSettings 查询 email_enabled=true 的设置行（报警扇出数据源）
	ListEnabledSettings(ctx context.Context, filter SettingsFilter) ([]*domain.NotificationSettings, error)

	// ListRecipients 用户的收件人列表，按添加时间正序
	ListRecipients(ctx context.Context, userID string) ([]*domain.NotificationRecipient, error)

	// AddRecipient 添加收件人；(user_id,email) 重复返回 ErrDuplicateRecipient
	AddRecipient(ctx context.Context, userID, email string) (*domain.NotificationRecipient, error)

	// DeleteRecipient 删除收件人（限本人的行）
	DeleteRecipient(ctx context.Context, userID, recipientID string) error

	// InsertAlertHistory 追加一条报警历史
	InsertAlertHistory(ctx context.Context, history *domain.AlertHistory) error

	// ListAlertHistory 用户报警历史，按发送时间倒序
	ListAlertHistory(ctx context.Context, userID string, limit int) ([]*domain.AlertHistory, error)
}
