package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// StatisticsHandler 统计 Handler
type StatisticsHandler struct {
	statisticsService service.StatisticsService
	sessions          SessionVerifier
	defaultDeviceID   string
	logger            *zap.Logger
}

// NewStatisticsHandler 创建统计 Handler
func NewStatisticsHandler(statisticsService service.StatisticsService, sessions SessionVerifier, defaultDeviceID string, logger *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		sessions:          sessions,
		defaultDeviceID:   defaultDeviceID,
		logger:            logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *StatisticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/statistics":
		h.Get(w, r)
	case "/api/v1/statistics/export":
		h.Export(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Get 日/周统计与活动热力图
func (h *StatisticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	deviceID := scopedDeviceID(r, h.defaultDeviceID)
	stats, err := h.statisticsService.Compute(ctx, deviceID)
	if err != nil {
		h.logger.Error("Failed to compute statistics",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute statistics"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(stats))
}

// Export 导出统计为 Excel 文件
func (h *StatisticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	deviceID := scopedDeviceID(r, h.defaultDeviceID)
	stats, err := h.statisticsService.Compute(ctx, deviceID)
	if err != nil {
		h.logger.Error("Failed to compute statistics for export",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute statistics"))
		return
	}

	data, err := GenerateStatisticsExport(stats)
	if err != nil {
		h.logger.Error("Failed to generate statistics export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("feeder-statistics-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
