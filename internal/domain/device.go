package domain

import (
	"database/sql"
	"time"
)

// Device 喂食器设备领域模型（对应 devices 表）
type Device struct {
	DeviceID     string          `db:"device_id"`
	Name         string          `db:"name"`
	LocationName sql.NullString  `db:"location_name"`
	Latitude     sql.NullFloat64 `db:"latitude"`
	Longitude    sql.NullFloat64 `db:"longitude"`
	CreatedAt    time.Time       `db:"created_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (d *Device) ToJSON() map[string]any {
	m := map[string]any{
		"device_id":  d.DeviceID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
	}
	if d.LocationName.Valid {
		m["location_name"] = d.LocationName.String
	} else {
		m["location_name"] = nil
	}
	if d.Latitude.Valid {
		m["latitude"] = d.Latitude.Float64
	} else {
		m["latitude"] = nil
	}
	if d.Longitude.Valid {
		m["longitude"] = d.Longitude.Float64
	} else {
		m["longitude"] = nil
	}
	return m
}

// DeviceWithStatus 设备加在线状态（设备列表页用）
type DeviceWithStatus struct {
	Device
	IsOnline bool         `db:"is_online"`
	LastSeen sql.NullTime `db:"last_seen"`
}

// ToJSON 转换为JSON格式
func (d *DeviceWithStatus) ToJSON() map[string]any {
	m := d.Device.ToJSON()
	m["is_online"] = d.IsOnline
	if d.LastSeen.Valid {
		m["last_seen"] = d.LastSeen.Time
	} else {
		m["last_seen"] = nil
	}
	return m
}
