package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"go.uber.org/zap"
)

// ErrInvalidDeviceName 设备名称非法
var ErrInvalidDeviceName = fmt.Errorf("invalid device name")

// DeviceService 设备管理接口
type DeviceService interface {
	// List 全部设备（带在线状态），按名称排序
	List(ctx context.Context) ([]*domain.DeviceWithStatus, error)

	// Update 更新设备展示信息
	Update(ctx context.Context, req repository.UpdateDeviceRequest) (*domain.Device, error)
}

// deviceService 实现
type deviceService struct {
	devicesRepo repository.DevicesRepository
	logger      *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(devicesRepo repository.DevicesRepository, logger *zap.Logger) DeviceService {
	return &deviceService{
		devicesRepo: devicesRepo,
		logger:      logger,
	}
}

// List 全部设备
func (s *deviceService) List(ctx context.Context) ([]*domain.DeviceWithStatus, error) {
	devices, err := s.devicesRepo.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// Update 更新设备展示信息
func (s *deviceService) Update(ctx context.Context, req repository.UpdateDeviceRequest) (*domain.Device, error) {
	// 1. 校验
	req.Name = strings.TrimSpace(req.Name)
	if req.DeviceID == "" || req.Name == "" {
		return nil, ErrInvalidDeviceName
	}

	// 2. 落库
	device, err := s.devicesRepo.UpdateDevice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update device: %w", err)
	}

	s.logger.Info("Device updated",
		zap.String("device_id", device.DeviceID),
		zap.String("name", device.Name),
	)
	return device, nil
}
