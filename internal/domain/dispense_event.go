package domain

import (
	"database/sql"
	"time"
)

// 投放事件类型
const (
	EventTypeFood  = "food"
	EventTypeWater = "water"
)

// 投放触发来源
const (
	TriggerSourcePIR    = "pir"
	TriggerSourceManual = "manual"
	TriggerSourceRemote = "remote"
)

// DispenseEvent 投放事件领域模型（对应 dispense_events 表，只追加不修改）
type DispenseEvent struct {
	ID               string          `db:"id"`
	DeviceID         string          `db:"device_id"`
	EventType        string          `db:"event_type"`     // food | water
	TriggerSource    string          `db:"trigger_source"` // pir | manual | remote
	AmountDispensed  sql.NullFloat64 `db:"amount_dispensed"` // 投放量（克）
	FoodWeightBefore sql.NullFloat64 `db:"food_weight_before"`
	FoodWeightAfter  sql.NullFloat64 `db:"food_weight_after"`
	CreatedAt        time.Time       `db:"created_at"`
}

// ToJSON 转换为JSON格式
func (e *DispenseEvent) ToJSON() map[string]any {
	m := map[string]any{
		"id":             e.ID,
		"device_id":      e.DeviceID,
		"event_type":     e.EventType,
		"trigger_source": e.TriggerSource,
		"created_at":     e.CreatedAt,
	}
	if e.AmountDispensed.Valid {
		m["amount_dispensed"] = e.AmountDispensed.Float64
	} else {
		m["amount_dispensed"] = nil
	}
	if e.FoodWeightBefore.Valid {
		m["food_weight_before"] = e.FoodWeightBefore.Float64
	} else {
		m["food_weight_before"] = nil
	}
	if e.FoodWeightAfter.Valid {
		m["food_weight_after"] = e.FoodWeightAfter.Float64
	} else {
		m["food_weight_after"] = nil
	}
	return m
}
