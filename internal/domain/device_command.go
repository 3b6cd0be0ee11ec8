package domain

import (
	"database/sql"
	"time"
)

// 远程命令
const (
	CommandDispenseFood  = "dispense_food"
	CommandDispenseWater = "dispense_water"
	CommandCalibrate     = "calibrate"
)

// 命令状态（只允许向前流转：pending → sent|failed → executed）
const (
	CommandStatusPending  = "pending"
	CommandStatusSent     = "sent"
	CommandStatusExecuted = "executed"
	CommandStatusFailed   = "failed"
)

// IsValidCommand 校验命令是否为受支持的三种之一
func IsValidCommand(command string) bool {
	switch command {
	case CommandDispenseFood, CommandDispenseWater, CommandCalibrate:
		return true
	}
	return false
}

// DeviceCommand 设备远程命令领域模型（对应 device_commands 表）
type DeviceCommand struct {
	ID         string         `db:"id"`
	DeviceID   string         `db:"device_id"`
	Command    string         `db:"command"`
	Status     string         `db:"status"`
	CreatedBy  sql.NullString `db:"created_by"` // 下发用户
	CreatedAt  time.Time      `db:"created_at"`
	ExecutedAt sql.NullTime   `db:"executed_at"`
}

// ToJSON 转换为JSON格式
func (c *DeviceCommand) ToJSON() map[string]any {
	m := map[string]any{
		"id":         c.ID,
		"device_id":  c.DeviceID,
		"command":    c.Command,
		"status":     c.Status,
		"created_at": c.CreatedAt,
	}
	if c.CreatedBy.Valid {
		m["created_by"] = c.CreatedBy.String
	} else {
		m["created_by"] = nil
	}
	if c.ExecutedAt.Valid {
		m["executed_at"] = c.ExecutedAt.Time
	} else {
		m["executed_at"] = nil
	}
	return m
}
