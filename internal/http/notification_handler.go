package httpapi

import (
	"errors"
	"net/http"

	"github.com/danishayman/cpc357-project/internal/repository"
	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// NotificationHandler 通知设置/收件人/报警历史 Handler
type NotificationHandler struct {
	notificationService service.NotificationService
	alertService        service.AlertService
	sessions            SessionVerifier
	logger              *zap.Logger
}

// NewNotificationHandler 创建通知 Handler
func NewNotificationHandler(notificationService service.NotificationService, alertService service.AlertService, sessions SessionVerifier, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		alertService:        alertService,
		sessions:            sessions,
		logger:              logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/notifications/settings" && r.Method == http.MethodGet:
		h.GetSettings(w, r)
	case path == "/api/v1/notifications/settings" && r.Method == http.MethodPut:
		h.SaveSettings(w, r)
	case path == "/api/v1/notifications/recipients" && r.Method == http.MethodGet:
		h.ListRecipients(w, r)
	case path == "/api/v1/notifications/recipients" && r.Method == http.MethodPost:
		h.AddRecipient(w, r)
	case path == "/api/v1/notifications/recipients" && r.Method == http.MethodDelete:
		h.DeleteRecipient(w, r)
	case path == "/api/v1/notifications/history" && r.Method == http.MethodGet:
		h.ListHistory(w, r)
	case path == "/api/v1/notifications/send-alert" && r.Method == http.MethodPost:
		h.SendAlert(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetSettings 获取通知设置（未保存过返回默认值）
func (h *NotificationHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	settings, err := h.notificationService.GetSettings(ctx, userID, "")
	if err != nil {
		h.logger.Error("Failed to load notification settings",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load settings"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"settings": settings.ToJSON()}))
}

// SaveSettings 保存通知设置
func (h *NotificationHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	var body struct {
		Email                string  `json:"email"`
		EmailEnabled         bool    `json:"email_enabled"`
		FoodLowThreshold     float64 `json:"food_low_threshold"`
		WaterLowEnabled      bool    `json:"water_low_enabled"`
		DeviceOfflineEnabled bool    `json:"device_offline_enabled"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	settings, err := h.notificationService.SaveSettings(ctx, service.UpdateSettingsRequest{
		UserID:               userID,
		Email:                body.Email,
		EmailEnabled:         body.EmailEnabled,
		FoodLowThreshold:     body.FoodLowThreshold,
		WaterLowEnabled:      body.WaterLowEnabled,
		DeviceOfflineEnabled: body.DeviceOfflineEnabled,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeJSON(w, http.StatusBadRequest, Fail("invalid email address"))
			return
		}
		h.logger.Error("Failed to save notification settings",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to save settings"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"settings": settings.ToJSON()}))
}

// ListRecipients 收件人列表
func (h *NotificationHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	recipients, err := h.notificationService.ListRecipients(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to list recipients",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list recipients"))
		return
	}

	items := make([]map[string]any, 0, len(recipients))
	for _, recipient := range recipients {
		items = append(items, recipient.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"recipients": items}))
}

// AddRecipient 添加收件人
func (h *NotificationHandler) AddRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	recipient, err := h.notificationService.AddRecipient(ctx, userID, body.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			writeJSON(w, http.StatusBadRequest, Fail("invalid email address"))
		case errors.Is(err, repository.ErrDuplicateRecipient):
			writeJSON(w, http.StatusConflict, Fail("recipient email already exists"))
		default:
			h.logger.Error("Failed to add recipient",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, Fail("failed to add recipient"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"recipient": recipient.ToJSON()}))
}

// DeleteRecipient 删除收件人
func (h *NotificationHandler) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	recipientID := r.URL.Query().Get("id")
	if recipientID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("id is required"))
		return
	}

	if err := h.notificationService.DeleteRecipient(ctx, userID, recipientID); err != nil {
		h.logger.Error("Failed to delete recipient",
			zap.String("user_id", userID),
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to delete recipient"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}

// ListHistory 报警历史
func (h *NotificationHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 50)
	history, err := h.notificationService.ListHistory(ctx, userID, limit)
	if err != nil {
		h.logger.Error("Failed to list alert history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list alert history"))
		return
	}

	items := make([]map[string]any, 0, len(history))
	for _, entry := range history {
		items = append(items, entry.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"history": items}))
}

// SendAlert 手动触发一条报警
// 带 userId 时只发给该用户（测试报警）；不带时向所有开启该类型的用户广播，
// 后者是设备离线报警的唯一外部入口
func (h *NotificationHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionUserID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	var body struct {
		AlertType string `json:"alertType"`
		UserID    string `json:"userId"`
		Details   struct {
			CurrentValue *float64 `json:"current_value"`
			Threshold    *float64 `json:"threshold"`
			DeviceID     string   `json:"device_id"`
		} `json:"details"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	details := service.AlertDetails{
		CurrentValue: body.Details.CurrentValue,
		Threshold:    body.Details.Threshold,
		DeviceID:     body.Details.DeviceID,
	}

	var err error
	if body.UserID != "" {
		err = h.alertService.SendTest(ctx, body.UserID, body.AlertType, details)
	} else {
		err = h.alertService.Broadcast(ctx, body.AlertType, details)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAlertType):
			writeJSON(w, http.StatusBadRequest, Fail("invalid alert type"))
		case errors.Is(err, service.ErrNoRecipients):
			writeJSON(w, http.StatusBadRequest, Fail("no notification recipients configured"))
		default:
			h.logger.Error("Failed to send alert",
				zap.String("user_id", sessionUserID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, Fail("failed to send alert"))
		}
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
