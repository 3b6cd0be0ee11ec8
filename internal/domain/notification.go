package domain

import "time"

// 通知设置默认值（用户未保存过设置时生效）
const (
	DefaultFoodLowThreshold = 200.0
)

// NotificationSettings 用户通知设置（对应 notification_settings 表，每用户一行）
type NotificationSettings struct {
	UserID               string    `db:"user_id"`
	Email                string    `db:"email"`
	EmailEnabled         bool      `db:"email_enabled"`
	FoodLowThreshold     float64   `db:"food_low_threshold"` // 低食量阈值（克）
	WaterLowEnabled      bool      `db:"water_low_enabled"`
	DeviceOfflineEnabled bool      `db:"device_offline_enabled"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// DefaultNotificationSettings 返回某用户的默认通知设置
func DefaultNotificationSettings(userID, email string) *NotificationSettings {
	return &NotificationSettings{
		UserID:               userID,
		Email:                email,
		EmailEnabled:         true,
		FoodLowThreshold:     DefaultFoodLowThreshold,
		WaterLowEnabled:      true,
		DeviceOfflineEnabled: true,
	}
}

// ToJSON 转换为JSON格式
func (s *NotificationSettings) ToJSON() map[string]any {
	return map[string]any{
		"user_id":                s.UserID,
		"email":                  s.Email,
		"email_enabled":          s.EmailEnabled,
		"food_low_threshold":     s.FoodLowThreshold,
		"water_low_enabled":      s.WaterLowEnabled,
		"device_offline_enabled": s.DeviceOfflineEnabled,
		"updated_at":             s.UpdatedAt,
	}
}

// NotificationRecipient 报警收件人（对应 notification_recipients 表，(user_id,email) 唯一）
type NotificationRecipient struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// ToJSON 转换为JSON格式
func (r *NotificationRecipient) ToJSON() map[string]any {
	return map[string]any{
		"id":         r.ID,
		"user_id":    r.UserID,
		"email":      r.Email,
		"created_at": r.CreatedAt,
	}
}
