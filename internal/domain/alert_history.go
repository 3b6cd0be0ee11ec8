package domain

import "time"

// 报警类型
const (
	AlertTypeFoodLow       = "food_low"
	AlertTypeWaterLow      = "water_low"
	AlertTypeDeviceOffline = "device_offline"
)

// IsValidAlertType 校验报警类型
func IsValidAlertType(alertType string) bool {
	switch alertType {
	case AlertTypeFoodLow, AlertTypeWaterLow, AlertTypeDeviceOffline:
		return true
	}
	return false
}

// AlertHistory 报警历史（对应 alert_history 表，按用户追加，每用户每次评估一行）
type AlertHistory struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	AlertType string    `db:"alert_type"`
	Message   string    `db:"message"`
	EmailSent bool      `db:"email_sent"` // 邮件是否发送成功
	SentAt    time.Time `db:"sent_at"`
}

// ToJSON 转换为JSON格式
func (h *AlertHistory) ToJSON() map[string]any {
	return map[string]any{
		"id":         h.ID,
		"user_id":    h.UserID,
		"alert_type": h.AlertType,
		"message":    h.Message,
		"email_sent": h.EmailSent,
		"sent_at":    h.SentAt,
	}
}
