package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/google/uuid"
)

// PostgresEventsRepository 投放事件仓库 Postgres 实现
type PostgresEventsRepository struct {
	db *sql.DB
}

// NewPostgresEventsRepository 创建投放事件仓库
func NewPostgresEventsRepository(db *sql.DB) *PostgresEventsRepository {
	return &PostgresEventsRepository{db: db}
}

var _ EventsRepository = (*PostgresEventsRepository)(nil)

const eventColumns = `id, device_id, event_type, trigger_source, amount_dispensed, food_weight_before, food_weight_after, created_at`

// InsertEvent 追加一条投放事件
func (r *PostgresEventsRepository) InsertEvent(ctx context.Context, event NewDispenseEvent) (*domain.DispenseEvent, error) {
	if event.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if event.EventType != domain.EventTypeFood && event.EventType != domain.EventTypeWater {
		return nil, fmt.Errorf("invalid event_type %q", event.EventType)
	}

	query := `
		INSERT INTO dispense_events (id, device_id, event_type, trigger_source, amount_dispensed, food_weight_before, food_weight_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	row := &domain.DispenseEvent{
		ID:               uuid.NewString(),
		DeviceID:         event.DeviceID,
		EventType:        event.EventType,
		TriggerSource:    event.TriggerSource,
		AmountDispensed:  nullFloat(event.AmountDispensed),
		FoodWeightBefore: nullFloat(event.FoodWeightBefore),
		FoodWeightAfter:  nullFloat(event.FoodWeightAfter),
	}

	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.DeviceID,
		row.EventType,
		row.TriggerSource,
		row.AmountDispensed,
		row.FoodWeightBefore,
		row.FoodWeightAfter,
	).Scan(&row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert dispense event: %w", err)
	}
	return row, nil
}

// ListRecentEvents 最近投放事件，按时间倒序
func (r *PostgresEventsRepository) ListRecentEvents(ctx context.Context, limit int, deviceID string) ([]*domain.DispenseEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT ` + eventColumns + `
		FROM dispense_events
	`
	args := []any{}
	if deviceID != "" {
		query += ` WHERE device_id = $1`
		args = append(args, deviceID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	return r.queryEvents(ctx, query, args...)
}

// ListEventsSince 时间窗内的投放事件
func (r *PostgresEventsRepository) ListEventsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.DispenseEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM dispense_events
		WHERE created_at >= $1
	`
	args := []any{since}
	if deviceID != "" {
		query += ` AND device_id = $2`
		args = append(args, deviceID)
	}
	query += ` ORDER BY created_at ASC`

	return r.queryEvents(ctx, query, args...)
}

func (r *PostgresEventsRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.DispenseEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispense events: %w", err)
	}
	defer rows.Close()

	var events []*domain.DispenseEvent
	for rows.Next() {
		var e domain.DispenseEvent
		if err := rows.Scan(
			&e.ID,
			&e.DeviceID,
			&e.EventType,
			&e.TriggerSource,
			&e.AmountDispensed,
			&e.FoodWeightBefore,
			&e.FoodWeightAfter,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dispense event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
