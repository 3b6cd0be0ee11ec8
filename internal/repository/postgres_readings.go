package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/google/uuid"
)

// PostgresReadingsRepository 传感器读数仓库 Postgres 实现
type PostgresReadingsRepository struct {
	db *sql.DB
}

// NewPostgresReadingsRepository 创建读数仓库
func NewPostgresReadingsRepository(db *sql.DB) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db}
}

var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

const readingColumns = `id, device_id, food_weight, water_level_ok, rain_value, is_raining, food_pir_triggered, water_pir_triggered, created_at`

// InsertReading 追加一条读数
func (r *PostgresReadingsRepository) InsertReading(ctx context.Context, reading NewSensorReading) (*domain.SensorReading, error) {
	if reading.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	query := `
		INSERT INTO sensor_readings (id, device_id, food_weight, water_level_ok, rain_value, is_raining, food_pir_triggered, water_pir_triggered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	row := &domain.SensorReading{
		ID:                uuid.NewString(),
		DeviceID:          reading.DeviceID,
		FoodWeight:        nullFloat(reading.FoodWeight),
		WaterLevelOK:      nullBool(reading.WaterLevelOK),
		RainValue:         nullFloat(reading.RainValue),
		IsRaining:         nullBool(reading.IsRaining),
		FoodPIRTriggered:  reading.FoodPIRTriggered,
		WaterPIRTriggered: reading.WaterPIRTriggered,
	}

	err := r.db.QueryRowContext(ctx, query,
		row.ID,
		row.DeviceID,
		row.FoodWeight,
		row.WaterLevelOK,
		row.RainValue,
		row.IsRaining,
		row.FoodPIRTriggered,
		row.WaterPIRTriggered,
	).Scan(&row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sensor reading: %w", err)
	}
	return row, nil
}

// LatestReading 某设备最新一条读数
func (r *PostgresReadingsRepository) LatestReading(ctx context.Context, deviceID string) (*domain.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var reading domain.SensorReading
	err := scanReading(r.db.QueryRowContext(ctx, query, deviceID), &reading)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}
	return &reading, nil
}

// ListReadingsSince 时间窗内的读数，按时间正序
func (r *PostgresReadingsRepository) ListReadingsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE created_at >= $1
	`
	args := []any{since}
	if deviceID != "" {
		query += ` AND device_id = $2`
		args = append(args, deviceID)
	}
	query += ` ORDER BY created_at ASC`

	return r.queryReadings(ctx, query, args...)
}

// ListMotionReadingsSince 时间窗内带PIR活动信号的读数
func (r *PostgresReadingsRepository) ListMotionReadingsSince(ctx context.Context, since time.Time, deviceID string) ([]*domain.SensorReading, error) {
	query := `
		SELECT ` + readingColumns + `
		FROM sensor_readings
		WHERE created_at >= $1
		  AND (food_pir_triggered = TRUE OR water_pir_triggered = TRUE)
	`
	args := []any{since}
	if deviceID != "" {
		query += ` AND device_id = $2`
		args = append(args, deviceID)
	}
	query += ` ORDER BY created_at ASC`

	return r.queryReadings(ctx, query, args...)
}

func (r *PostgresReadingsRepository) queryReadings(ctx context.Context, query string, args ...any) ([]*domain.SensorReading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensor readings: %w", err)
	}
	defer rows.Close()

	var readings []*domain.SensorReading
	for rows.Next() {
		var reading domain.SensorReading
		if err := scanReading(rows, &reading); err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		readings = append(readings, &reading)
	}
	return readings, rows.Err()
}

// scanner 兼容 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanReading(s scanner, reading *domain.SensorReading) error {
	return s.Scan(
		&reading.ID,
		&reading.DeviceID,
		&reading.FoodWeight,
		&reading.WaterLevelOK,
		&reading.RainValue,
		&reading.IsRaining,
		&reading.FoodPIRTriggered,
		&reading.WaterPIRTriggered,
		&reading.CreatedAt,
	)
}
