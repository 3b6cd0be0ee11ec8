package domain

import (
	"database/sql"
	"time"
)

// DeviceStatus 设备在线状态（对应 device_status 表，每设备至多一行）
type DeviceStatus struct {
	DeviceID        string         `db:"device_id"`
	IsOnline        bool           `db:"is_online"`
	LastSeen        sql.NullTime   `db:"last_seen"`
	IPAddress       sql.NullString `db:"ip_address"`
	FirmwareVersion sql.NullString `db:"firmware_version"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// ToJSON 转换为JSON格式
func (s *DeviceStatus) ToJSON() map[string]any {
	m := map[string]any{
		"device_id":  s.DeviceID,
		"is_online":  s.IsOnline,
		"updated_at": s.UpdatedAt,
	}
	if s.LastSeen.Valid {
		m["last_seen"] = s.LastSeen.Time
	} else {
		m["last_seen"] = nil
	}
	if s.IPAddress.Valid {
		m["ip_address"] = s.IPAddress.String
	} else {
		m["ip_address"] = nil
	}
	if s.FirmwareVersion.Valid {
		m["firmware_version"] = s.FirmwareVersion.String
	} else {
		m["firmware_version"] = nil
	}
	return m
}
