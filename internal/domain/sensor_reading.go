package domain

import (
	"database/sql"
	"time"
)

// SensorReading 传感器读数领域模型（对应 sensor_readings 表，只追加不修改）
type SensorReading struct {
	ID               string          `db:"id"`
	DeviceID         string          `db:"device_id"`
	FoodWeight       sql.NullFloat64 `db:"food_weight"`       // 食物重量（克）
	WaterLevelOK     sql.NullBool    `db:"water_level_ok"`    // 水位是否正常
	RainValue        sql.NullFloat64 `db:"rain_value"`        // 雨量传感器原始值
	IsRaining        sql.NullBool    `db:"is_raining"`
	FoodPIRTriggered bool            `db:"food_pir_triggered"` // 食物区PIR触发
	WaterPIRTriggered bool           `db:"water_pir_triggered"` // 水区PIR触发
	CreatedAt        time.Time       `db:"created_at"`
}

// ToJSON 转换为JSON格式
func (r *SensorReading) ToJSON() map[string]any {
	m := map[string]any{
		"id":                  r.ID,
		"device_id":           r.DeviceID,
		"food_pir_triggered":  r.FoodPIRTriggered,
		"water_pir_triggered": r.WaterPIRTriggered,
		"created_at":          r.CreatedAt,
	}
	if r.FoodWeight.Valid {
		m["food_weight"] = r.FoodWeight.Float64
	} else {
		m["food_weight"] = nil
	}
	if r.WaterLevelOK.Valid {
		m["water_level_ok"] = r.WaterLevelOK.Bool
	} else {
		m["water_level_ok"] = nil
	}
	if r.RainValue.Valid {
		m["rain_value"] = r.RainValue.Float64
	} else {
		m["rain_value"] = nil
	}
	if r.IsRaining.Valid {
		m["is_raining"] = r.IsRaining.Bool
	} else {
		m["is_raining"] = nil
	}
	return m
}

// HasMotion 是否带有活动信号（任一PIR触发；热力图计数每条读数只算一次）
func (r *SensorReading) HasMotion() bool {
	return r.FoodPIRTriggered || r.WaterPIRTriggered
}
