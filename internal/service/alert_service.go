package service

import (
	"context"
	"fmt"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// Observation 一次传感器观测（报警评估输入）
type Observation struct {
	DeviceID     string   `json:"device_id"`
	FoodWeight   *float64 `json:"food_weight,omitempty"`
	WaterLevelOK *bool    `json:"water_level_ok,omitempty"`
}

// AlertService 报警引擎接口
type AlertService interface {
	// EvaluateAndNotify 评估一次观测并向订阅用户扇出报警邮件
	// 摄入路径以 fire-and-forget 方式调用；单个用户的失败不影响其他用户
	EvaluateAndNotify(ctx context.Context, obs Observation)

	// NotifyDeviceOffline 设备离线报警（外部触发器调用，不走观测路径）
	NotifyDeviceOffline(ctx context.Context, deviceID string)

	// SendTest 手动发送一条测试报警（只发给该用户自己的收件人）
	// 用户没有收件人时返回 ErrNoRecipients，不做任何发送
	SendTest(ctx context.Context, userID, alertType string, details AlertDetails) error

	// Broadcast 未指定用户的外部触发报警：向所有开启该类型的用户扇出
	// 没有可通知的用户不算错误；单个用户的失败只记日志
	Broadcast(ctx context.Context, alertType string, details AlertDetails) error
}

// alertService 实现
type alertService struct {
	notificationsRepo repository.NotificationsRepository
	mailer            Mailer
	cooldown          AlertCooldown // 可为 nil（不限流）
	logger            *zap.Logger
}

// NewAlertService 创建 AlertService 实例
func NewAlertService(notificationsRepo repository.NotificationsRepository, mailer Mailer, cooldown AlertCooldown, logger *zap.Logger) AlertService {
	return &alertService{
		notificationsRepo: notificationsRepo,
		mailer:            mailer,
		cooldown:          cooldown,
		logger:            logger,
	}
}

// EvaluateAndNotify 评估一次观测并扇出报警
func (s *alertService) EvaluateAndNotify(ctx context.Context, obs Observation) {
	// 食量检查：food_weight < 用户阈值
	if obs.FoodWeight != nil {
		s.fanOut(ctx, domain.AlertTypeFoodLow, obs.DeviceID, func(settings *domain.NotificationSettings) (bool, AlertDetails) {
			if *obs.FoodWeight >= settings.FoodLowThreshold {
				return false, AlertDetails{}
			}
			threshold := settings.FoodLowThreshold
			return true, AlertDetails{
				CurrentValue: obs.FoodWeight,
				Threshold:    &threshold,
				DeviceID:     obs.DeviceID,
			}
		})
	}

	// 水位检查：仅当观测明确报告水位异常
	if obs.WaterLevelOK != nil && !*obs.WaterLevelOK {
		s.fanOut(ctx, domain.AlertTypeWaterLow, obs.DeviceID, func(settings *domain.NotificationSettings) (bool, AlertDetails) {
			return true, AlertDetails{DeviceID: obs.DeviceID}
		})
	}
}

// NotifyDeviceOffline 设备离线报警
func (s *alertService) NotifyDeviceOffline(ctx context.Context, deviceID string) {
	s.fanOut(ctx, domain.AlertTypeDeviceOffline, deviceID, func(settings *domain.NotificationSettings) (bool, AlertDetails) {
		return true, AlertDetails{DeviceID: deviceID}
	})
}

// Broadcast 未指定用户的外部触发报警
func (s *alertService) Broadcast(ctx context.Context, alertType string, details AlertDetails) error {
	if !domain.IsValidAlertType(alertType) {
		return ErrInvalidAlertType
	}

	// 设备离线是这条路径的主要来源（云侧健康检查触发）
	if alertType == domain.AlertTypeDeviceOffline {
		s.NotifyDeviceOffline(ctx, details.DeviceID)
		return nil
	}

	s.fanOut(ctx, alertType, details.DeviceID, func(settings *domain.NotificationSettings) (bool, AlertDetails) {
		d := details
		if alertType == domain.AlertTypeFoodLow {
			// 阈值按收件用户自己的设置填充
			threshold := settings.FoodLowThreshold
			d.Threshold = &threshold
		}
		return true, d
	})
	return nil
}

// fanOut 对所有开启邮件通知（且该报警类型开启）的用户逐个评估并发送
// evaluate 返回该用户是否触发以及邮件详情
func (s *alertService) fanOut(ctx context.Context, alertType, deviceID string, evaluate func(*domain.NotificationSettings) (bool, AlertDetails)) {
	settingsList, err := s.notificationsRepo.ListEnabledSettings(ctx, repository.SettingsFilter{AlertType: alertType})
	if err != nil {
		s.logger.Error("Failed to load notification settings",
			zap.String("alert_type", alertType),
			zap.Error(err),
		)
		return
	}

	for _, settings := range settingsList {
		triggered, details := evaluate(settings)
		if !triggered {
			continue
		}
		s.notifyUser(ctx, settings.UserID, alertType, deviceID, details)
	}
}

// notifyUser 向单个用户的收件人列表发送报警并写一条历史
// 任何失败都只记录日志，不向上传播
func (s *alertService) notifyUser(ctx context.Context, userID, alertType, deviceID string, details AlertDetails) {
	recipients, err := s.notificationsRepo.ListRecipients(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load recipients",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}
	// 没有收件人：既不发邮件也不写历史
	if len(recipients) == 0 {
		return
	}

	// 冷却窗口内的重复报警直接丢弃
	if s.cooldown != nil {
		allowed, err := s.cooldown.Allow(ctx, userID, alertType, deviceID)
		if err != nil {
			s.logger.Warn("Alert cooldown check failed", zap.Error(err))
		}
		if !allowed {
			s.logger.Debug("Alert suppressed by cooldown",
				zap.String("user_id", userID),
				zap.String("alert_type", alertType),
				zap.String("device_id", deviceID),
			)
			return
		}
	}

	emails := make([]string, len(recipients))
	for i, r := range recipients {
		emails[i] = r.Email
	}

	emailSent := true
	if err := s.mailer.SendAlert(ctx, alertType, emails, details); err != nil {
		s.logger.Error("Failed to send alert email",
			zap.String("user_id", userID),
			zap.String("alert_type", alertType),
			zap.Error(err),
		)
		emailSent = false
	}

	// 每用户一条历史（不是每收件人一条）
	history := &domain.AlertHistory{
		UserID:    userID,
		AlertType: alertType,
		Message:   fmt.Sprintf("Alert sent to %d recipient(s)", len(emails)),
		EmailSent: emailSent,
	}
	if err := s.notificationsRepo.InsertAlertHistory(ctx, history); err != nil {
		s.logger.Error("Failed to record alert history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

// SendTest 手动发送一条测试报警
func (s *alertService) SendTest(ctx context.Context, userID, alertType string, details AlertDetails) error {
	if !domain.IsValidAlertType(alertType) {
		return ErrInvalidAlertType
	}

	recipients, err := s.notificationsRepo.ListRecipients(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load recipients: %w", err)
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	emails := make([]string, len(recipients))
	for i, r := range recipients {
		emails[i] = r.Email
	}

	emailSent := true
	if err := s.mailer.SendAlert(ctx, alertType, emails, details); err != nil {
		s.logger.Error("Failed to send test alert email",
			zap.String("user_id", userID),
			zap.String("alert_type", alertType),
			zap.Error(err),
		)
		emailSent = false
	}

	history := &domain.AlertHistory{
		UserID:    userID,
		AlertType: alertType,
		Message:   fmt.Sprintf("Test alert sent to %d recipient(s)", len(emails)),
		EmailSent: emailSent,
	}
	if err := s.notificationsRepo.InsertAlertHistory(ctx, history); err != nil {
		s.logger.Error("Failed to record alert history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if !emailSent {
		return fmt.Errorf("alert email delivery failed")
	}
	return nil
}
