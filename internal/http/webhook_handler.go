package httpapi

import (
	"errors"
	"net/http"

	"github.com/danishayman/cpc357-project/internal/service"

	"go.uber.org/zap"
)

// WebhookHandler 设备数据摄入入口
// 调用方是云侧转发函数，走共享密钥而不是用户会话
type WebhookHandler struct {
	ingestService service.IngestService
	secretToken   string // 为空时跳过校验（本地开发）
	logger        *zap.Logger
}

// NewWebhookHandler 创建 Webhook Handler
func NewWebhookHandler(ingestService service.IngestService, secretToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		ingestService: ingestService,
		secretToken:   secretToken,
		logger:        logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.Ingest(w, r)
}

// Ingest 处理一条设备上报
func (h *WebhookHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secretToken != "" && r.Header.Get("Authorization") != "Bearer "+h.secretToken {
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return
	}

	var payload service.WebhookPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	if err := h.ingestService.Process(ctx, payload); err != nil {
		if errors.Is(err, service.ErrUnknownPayloadType) {
			writeJSON(w, http.StatusBadRequest, Fail("unknown payload type"))
			return
		}
		h.logger.Error("Failed to process webhook payload",
			zap.String("type", payload.Type),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to process payload"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"success": true}))
}
