package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoutes 注册全部 API 路由
func (r *Router) RegisterRoutes(
	commands *CommandHandler,
	devices *DeviceHandler,
	notifications *NotificationHandler,
	sensorData *SensorDataHandler,
	statistics *StatisticsHandler,
	webhook *WebhookHandler,
) {
	r.Handle("/api/v1/commands", commands)
	r.Handle("/api/v1/commands/pending", commands)
	r.Handle("/api/v1/devices", devices)
	r.Handle("/api/v1/notifications/", notifications)
	r.Handle("/api/v1/sensor-data", sensorData)
	r.Handle("/api/v1/statistics", statistics)
	r.Handle("/api/v1/statistics/", statistics)
	r.Handle("/api/v1/webhook", webhook)

	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
