package httpapi

import (
	"net/http"

	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// SensorDataHandler 仪表盘遥测 Handler
type SensorDataHandler struct {
	telemetryService service.TelemetryService
	sessions         SessionVerifier
	defaultDeviceID  string
	logger           *zap.Logger
}

// NewSensorDataHandler 创建遥测 Handler
func NewSensorDataHandler(telemetryService service.TelemetryService, sessions SessionVerifier, defaultDeviceID string, logger *zap.Logger) *SensorDataHandler {
	return &SensorDataHandler{
		telemetryService: telemetryService,
		sessions:         sessions,
		defaultDeviceID:  defaultDeviceID,
		logger:           logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *SensorDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.Overview(w, r)
}

// Overview 仪表盘总览：最新读数 + 设备状态 + 最近事件 + 24小时历史
func (h *SensorDataHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	deviceID := scopedDeviceID(r, h.defaultDeviceID)
	overview, err := h.telemetryService.Overview(ctx, deviceID)
	if err != nil {
		h.logger.Error("Failed to load telemetry overview",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load sensor data"))
		return
	}

	events := make([]map[string]any, 0, len(overview.RecentEvents))
	for _, event := range overview.RecentEvents {
		events = append(events, event.ToJSON())
	}
	history := make([]map[string]any, 0, len(overview.History))
	for _, reading := range overview.History {
		history = append(history, reading.ToJSON())
	}

	result := map[string]any{
		"recent_events": events,
		"history":       history,
	}
	if overview.Latest != nil {
		result["latest"] = overview.Latest.ToJSON()
	} else {
		result["latest"] = nil
	}
	if overview.Status != nil {
		result["status"] = overview.Status.ToJSON()
	} else {
		result["status"] = nil
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// scopedDeviceID 解析 device_id/scope 查询参数
// scope=all 返回空串（跨设备）；否则回落到默认设备
func scopedDeviceID(r *http.Request, defaultDeviceID string) string {
	if r.URL.Query().Get("scope") == "all" {
		return ""
	}
	if deviceID := r.URL.Query().Get("device_id"); deviceID != "" {
		return deviceID
	}
	return defaultDeviceID
}
