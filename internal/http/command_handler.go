package httpapi

import (
	"errors"
	"net/http"

	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// CommandHandler 远程命令 Handler
// /api/v1/commands 走用户会话；/api/v1/commands/pending 是设备轮询入口，
// 与 webhook 一样走共享密钥
type CommandHandler struct {
	commandService service.CommandService
	sessions       SessionVerifier
	secretToken    string // 为空时跳过校验（本地开发）
	logger         *zap.Logger
}

// NewCommandHandler 创建远程命令 Handler
func NewCommandHandler(commandService service.CommandService, sessions SessionVerifier, secretToken string, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		sessions:       sessions,
		secretToken:    secretToken,
		logger:         logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/v1/commands/pending" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.PendingForDevice(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.Dispatch(w, r)
	case http.MethodGet:
		h.ListRecent(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// PendingForDevice 设备轮询未执行命令
func (h *CommandHandler) PendingForDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secretToken != "" && r.Header.Get("Authorization") != "Bearer "+h.secretToken {
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return
	}

	commands, err := h.commandService.PendingForDevice(ctx, r.URL.Query().Get("device_id"))
	if err != nil {
		h.logger.Error("Failed to list pending commands", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list pending commands"))
		return
	}

	items := make([]map[string]any, 0, len(commands))
	for _, cmd := range commands {
		items = append(items, cmd.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"commands": items}))
}

// Dispatch 下发一条设备命令
func (h *CommandHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r, h.sessions)
	if !ok {
		return
	}

	var body struct {
		Command  string `json:"command"`
		DeviceID string `json:"device_id"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	resp, err := h.commandService.Dispatch(ctx, service.DispatchRequest{
		Command:  body.Command,
		DeviceID: body.DeviceID,
		UserID:   userID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCommand) {
			writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			return
		}
		h.logger.Error("Failed to dispatch command",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to dispatch command"))
		return
	}

	writeJSON(w, http.StatusCreated, Ok(map[string]any{
		"command":          resp.Command.ToJSON(),
		"relay_message_id": resp.RelayMessageID,
		"delivery_note":    resp.DeliveryNote,
	}))
}

// ListRecent 最近命令列表
func (h *CommandHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := userIDFromReq(w, r, h.sessions); !ok {
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 20)
	commands, err := h.commandService.ListRecent(ctx, limit)
	if err != nil {
		h.logger.Error("Failed to list commands", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list commands"))
		return
	}

	items := make([]map[string]any, 0, len(commands))
	for _, cmd := range commands {
		items = append(items, cmd.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"commands": items}))
}
