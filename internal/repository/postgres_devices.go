package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danishayman/cpc357-project/internal/domain"
)

// PostgresDevicesRepository 设备仓库 Postgres 实现
type PostgresDevicesRepository struct {
	db *sql.DB
}

// NewPostgresDevicesRepository 创建设备仓库
func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

// 确保实现了接口
var _ DevicesRepository = (*PostgresDevicesRepository)(nil)

// ListDevices 按名称排序返回全部设备，LEFT JOIN 在线状态
func (r *PostgresDevicesRepository) ListDevices(ctx context.Context) ([]*domain.DeviceWithStatus, error) {
	query := `
		SELECT
			d.device_id,
			d.name,
			d.location_name,
			d.latitude,
			d.longitude,
			d.created_at,
			COALESCE(s.is_online, FALSE),
			s.last_seen
		FROM devices d
		LEFT JOIN device_status s ON s.device_id = d.device_id
		ORDER BY d.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.DeviceWithStatus
	for rows.Next() {
		var d domain.DeviceWithStatus
		if err := rows.Scan(
			&d.DeviceID,
			&d.Name,
			&d.LocationName,
			&d.Latitude,
			&d.Longitude,
			&d.CreatedAt,
			&d.IsOnline,
			&d.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

// UpdateDevice 更新设备展示信息
func (r *PostgresDevicesRepository) UpdateDevice(ctx context.Context, req UpdateDeviceRequest) (*domain.Device, error) {
	if req.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	query := `
		UPDATE devices
		SET name = $2,
		    location_name = $3,
		    latitude = $4,
		    longitude = $5
		WHERE device_id = $1
		RETURNING device_id, name, location_name, latitude, longitude, created_at
	`

	var d domain.Device
	err := r.db.QueryRowContext(ctx, query,
		req.DeviceID,
		req.Name,
		nullString(req.LocationName),
		nullFloat(req.Latitude),
		nullFloat(req.Longitude),
	).Scan(
		&d.DeviceID,
		&d.Name,
		&d.LocationName,
		&d.Latitude,
		&d.Longitude,
		&d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device not found: %w", err)
		}
		return nil, fmt.Errorf("failed to update device: %w", err)
	}
	return &d, nil
}

// EnsureDevice 设备首次上报时补建设备行（名称默认用 device_id）
func (r *PostgresDevicesRepository) EnsureDevice(ctx context.Context, deviceID string) error {
	query := `
		INSERT INTO devices (device_id, name)
		VALUES ($1, $1)
		ON CONFLICT (device_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, deviceID); err != nil {
		return fmt.Errorf("failed to ensure device: %w", err)
	}
	return nil
}

// GetStatus 获取设备在线状态
func (r *PostgresDevicesRepository) GetStatus(ctx context.Context, deviceID string) (*domain.DeviceStatus, error) {
	query := `
		SELECT device_id, is_online, last_seen, ip_address, firmware_version, updated_at
		FROM device_status
		WHERE device_id = $1
	`

	var s domain.DeviceStatus
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&s.DeviceID,
		&s.IsOnline,
		&s.LastSeen,
		&s.IPAddress,
		&s.FirmwareVersion,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device status: %w", err)
	}
	return &s, nil
}

// UpsertStatus 更新设备在线状态（device_id 唯一键冲突时覆盖）
func (r *PostgresDevicesRepository) UpsertStatus(ctx context.Context, status *domain.DeviceStatus) error {
	query := `
		INSERT INTO device_status (device_id, is_online, last_seen, ip_address, firmware_version, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (device_id)
		DO UPDATE SET is_online = EXCLUDED.is_online,
		              last_seen = EXCLUDED.last_seen,
		              ip_address = EXCLUDED.ip_address,
		              firmware_version = EXCLUDED.firmware_version,
		              updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		status.DeviceID,
		status.IsOnline,
		status.LastSeen,
		status.IPAddress,
		status.FirmwareVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device status: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
