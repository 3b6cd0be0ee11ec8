package repository

import (
	"context"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// NewDispenseEvent 投放事件写入参数（id/created_at 由仓库生成）
type NewDispenseEvent struct {
	DeviceID         string
	EventType        string
	TriggerSource    string
	AmountDispensed  *float64
	FoodWeightBefore *float64
	FoodWeightAfter  *float64
}

// EventsRepository 投放事件仓库接口（只追加）
type EventsRepository interface {
	// InsertEvent 追加一条投放事件
	InsertEvent(ctx context.Context, event NewDispenseEvent) (*domain.DispenseEvent, error)

	// ListRecentEvents 最近投放事件，按时间倒序
	// deviceID 为空表示跨设备（scope=all）
	ListRecentEvents(ctx context.Context, limit int, deviceID string) ([]*domain.DispenseEvent, error)

	// ListEventsSince 时间窗内的投放事件（统计数据源）
	// deviceID 为空表示跨设备（scope=all）
	ListEventsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.DispenseEvent, error)
}
