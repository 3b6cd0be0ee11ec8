package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// 报警历史默认分页
const defaultHistoryLimit = 50

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UpdateSettingsRequest 通知设置保存请求
type UpdateSettingsRequest struct {
	UserID               string
	Email                string
	EmailEnabled         bool
	FoodLowThreshold     float64
	WaterLowEnabled      bool
	DeviceOfflineEnabled bool
}

// NotificationService 通知设置/收件人/报警历史管理接口
type NotificationService interface {
	// GetSettings 获取用户通知设置；未保存过时返回默认设置（不落库）
	GetSettings(ctx context.Context, userID, email string) (*domain.NotificationSettings, error)

	// SaveSettings 保存用户通知设置
	SaveSettings(ctx context.Context, req UpdateSettingsRequest) (*domain.NotificationSettings, error)

	// ListRecipients 用户的收件人列表
	ListRecipients(ctx context.Context, userID string) ([]*domain.NotificationRecipient, error)

	// AddRecipient 添加收件人；邮箱非法返回 ErrInvalidEmail，
	// 重复返回 repository.ErrDuplicateRecipient
	AddRecipient(ctx context.Context, userID, email string) (*domain.NotificationRecipient, error)

	// DeleteRecipient 删除收件人（限本人的行）
	DeleteRecipient(ctx context.Context, userID, recipientID string) error

	// ListHistory 用户报警历史，按发送时间倒序
	ListHistory(ctx context.Context, userID string, limit int) ([]*domain.AlertHistory, error)
}

// notificationService 实现
type notificationService struct {
	notificationsRepo repository.NotificationsRepository
	logger            *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(notificationsRepo repository.NotificationsRepository, logger *zap.Logger) NotificationService {
	return &notificationService{
		notificationsRepo: notificationsRepo,
		logger:            logger,
	}
}

// GetSettings 获取用户通知设置
func (s *notificationService) GetSettings(ctx context.Context, userID, email string) (*domain.NotificationSettings, error) {
	settings, err := s.notificationsRepo.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	if settings == nil {
		// 未保存过：返回默认值，首次 PUT 时才落库
		return domain.DefaultNotificationSettings(userID, email), nil
	}
	return settings, nil
}

// SaveSettings 保存用户通知设置
func (s *notificationService) SaveSettings(ctx context.Context, req UpdateSettingsRequest) (*domain.NotificationSettings, error) {
	// 1. 校验
	if req.FoodLowThreshold < 0 {
		return nil, fmt.Errorf("food_low_threshold must be non-negative")
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	// 2. 落库
	settings, err := s.notificationsRepo.UpsertSettings(ctx, &domain.NotificationSettings{
		UserID:               req.UserID,
		Email:                email,
		EmailEnabled:         req.EmailEnabled,
		FoodLowThreshold:     req.FoodLowThreshold,
		WaterLowEnabled:      req.WaterLowEnabled,
		DeviceOfflineEnabled: req.DeviceOfflineEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}

	s.logger.Info("Notification settings saved",
		zap.String("user_id", req.UserID),
		zap.Bool("email_enabled", settings.EmailEnabled),
		zap.Float64("food_low_threshold", settings.FoodLowThreshold),
	)
	return settings, nil
}

// ListRecipients 收件人列表
func (s *notificationService) ListRecipients(ctx context.Context, userID string) ([]*domain.NotificationRecipient, error) {
	recipients, err := s.notificationsRepo.ListRecipients(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	return recipients, nil
}

// AddRecipient 添加收件人
func (s *notificationService) AddRecipient(ctx context.Context, userID, email string) (*domain.NotificationRecipient, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	recipient, err := s.notificationsRepo.AddRecipient(ctx, userID, email)
	if err != nil {
		// 重复收件人原样上抛，由 HTTP 层映射为 Conflict
		return nil, err
	}

	s.logger.Info("Recipient added",
		zap.String("user_id", userID),
		zap.String("recipient_id", recipient.ID),
	)
	return recipient, nil
}

// DeleteRecipient 删除收件人
func (s *notificationService) DeleteRecipient(ctx context.Context, userID, recipientID string) error {
	if recipientID == "" {
		return fmt.Errorf("recipient id is required")
	}
	if err := s.notificationsRepo.DeleteRecipient(ctx, userID, recipientID); err != nil {
		return fmt.Errorf("failed to delete recipient: %w", err)
	}
	s.logger.Info("Recipient deleted",
		zap.String("user_id", userID),
		zap.String("recipient_id", recipientID),
	)
	return nil
}

// ListHistory 报警历史
func (s *notificationService) ListHistory(ctx context.Context, userID string, limit int) ([]*domain.AlertHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := s.notificationsRepo.ListAlertHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert history: %w", err)
	}
	return history, nil
}
