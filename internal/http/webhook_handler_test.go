package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danishayman/cpc357-project/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeIngestService records payloads
type fakeIngestService struct {
	processed []service.WebhookPayload
}

func (f *fakeIngestService) Process(_ context.Context, payload service.WebhookPayload) error {
	switch payload.Type {
	case service.PayloadTypeSensorReading, service.PayloadTypeDispenseEvent, service.PayloadTypeCommandExecuted:
		f.processed = append(f.processed, payload)
		return nil
	default:
		return service.ErrUnknownPayloadType
	}
}

func TestWebhookHandler_SecretRequired(t *testing.T) {
	svc := &fakeIngestService{}
	handler := NewWebhookHandler(svc, "s3cret", zap.NewNop())

	body := `{"type":"sensor_reading","data":{"device_id":"esp32-feeder-01","food_weight":320}}`

	// 没有密钥
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.processed)

	// 错误密钥
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 正确密钥
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.processed, 1)
	assert.Equal(t, "sensor_reading", svc.processed[0].Type)
}

func TestWebhookHandler_UnknownType(t *testing.T) {
	handler := NewWebhookHandler(&fakeIngestService{}, "", zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook",
		strings.NewReader(`{"type":"telepathy","data":{}}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_MethodNotAllowed(t *testing.T) {
	handler := NewWebhookHandler(&fakeIngestService{}, "", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhook", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
