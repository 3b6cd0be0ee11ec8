package httpapi

import (
	"errors"
	"net/http"

	"github.com/danishayman/cpc357-project/internal/repository"
	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// DeviceHandler 设备管理 Handler
type DeviceHandler struct {
	deviceService service.DeviceService
	sessions      SessionVerifier
	logger        *zap.Logger
}

// NewDeviceHandler 创建设备管理 Handler
func NewDeviceHandler(deviceService service.DeviceService, sessions SessionVerifier, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		sessions:      sessions,
		logger:        logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPut:
		h.Update(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// List 全部设备（带在线状态）
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	devices, err := h.deviceService.List(ctx)
	if err != nil {
		h.logger.Error("Failed to list devices", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list devices"))
		return
	}

	items := make([]map[string]any, 0, len(devices))
	for _, device := range devices {
		items = append(items, device.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"devices": items}))
}

// Update 更新设备展示信息
func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	var body struct {
		DeviceID     string   `json:"device_id"`
		Name         string   `json:"name"`
		LocationName *string  `json:"location_name"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	device, err := h.deviceService.Update(ctx, repository.UpdateDeviceRequest{
		DeviceID:     body.DeviceID,
		Name:         body.Name,
		LocationName: body.LocationName,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidDeviceName) {
			writeJSON(w, http.StatusBadRequest, Fail("device_id and name are required"))
			return
		}
		h.logger.Error("Failed to update device",
			zap.String("device_id", body.DeviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update device"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{"device": device.ToJSON()}))
}
