package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSessions maps token -> userID
type fakeSessions map[string]string

func (f fakeSessions) Verify(_ context.Context, token string) (string, error) {
	return f[token], nil
}

// fakeCommandService scripted CommandService
type fakeCommandService struct {
	dispatched  []service.DispatchRequest
	pending     []*domain.DeviceCommand
	polled      []string // deviceID per PendingForDevice call
	dispatchErr error
}

func (f *fakeCommandService) Dispatch(_ context.Context, req service.DispatchRequest) (*service.DispatchResponse, error) {
	if !domain.IsValidCommand(req.Command) {
		return nil, service.ErrInvalidCommand
	}
	if f.dispatchErr != nil {
		return nil, f.dispatchErr
	}
	f.dispatched = append(f.dispatched, req)
	return &service.DispatchResponse{
		Command: &domain.DeviceCommand{
			ID:       "cmd-1",
			DeviceID: req.DeviceID,
			Command:  req.Command,
			Status:   domain.CommandStatusSent,
		},
		DeliveryNote: "command delivered via relay",
	}, nil
}

func (f *fakeCommandService) ListRecent(_ context.Context, _ int) ([]*domain.DeviceCommand, error) {
	return []*domain.DeviceCommand{
		{ID: "cmd-1", DeviceID: "esp32-feeder-01", Command: "dispense_food", Status: "executed", CreatedAt: time.Now()},
	}, nil
}

func (f *fakeCommandService) PendingForDevice(_ context.Context, deviceID string) ([]*domain.DeviceCommand, error) {
	f.polled = append(f.polled, deviceID)
	return f.pending, nil
}

func (f *fakeCommandService) MarkExecuted(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func newCommandHandler(svc service.CommandService) *CommandHandler {
	return NewCommandHandler(svc, fakeSessions{"tok-1": "user-1"}, "hub-secret", zap.NewNop())
}

func TestCommandHandler_Dispatch(t *testing.T) {
	svc := &fakeCommandService{}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		strings.NewReader(`{"command":"dispense_food"}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.dispatched, 1)
	assert.Equal(t, "user-1", svc.dispatched[0].UserID)
	assert.Contains(t, rec.Body.String(), "delivery_note")
}

func TestCommandHandler_Unauthorized(t *testing.T) {
	svc := &fakeCommandService{}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		strings.NewReader(`{"command":"dispense_food"}`))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.dispatched)
}

func TestCommandHandler_InvalidCommand(t *testing.T) {
	svc := &fakeCommandService{}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		strings.NewReader(`{"command":"launch"}`))
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.dispatched)
}

func TestCommandHandler_ListRecent(t *testing.T) {
	handler := newCommandHandler(&fakeCommandService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"commands"`)
	assert.Contains(t, rec.Body.String(), "cmd-1")
}

func TestCommandHandler_SessionCookie(t *testing.T) {
	svc := &fakeCommandService{}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		strings.NewReader(`{"command":"calibrate"}`))
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCommandHandler_PendingForDevice(t *testing.T) {
	svc := &fakeCommandService{
		pending: []*domain.DeviceCommand{
			{ID: "cmd-1", DeviceID: "esp32-feeder-01", Command: "dispense_food", Status: domain.CommandStatusSent, CreatedAt: time.Now()},
		},
	}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands/pending?device_id=esp32-feeder-01", nil)
	req.Header.Set("Authorization", "Bearer hub-secret")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"esp32-feeder-01"}, svc.polled)
	assert.Contains(t, rec.Body.String(), "dispense_food")
}

func TestCommandHandler_PendingForDevice_RequiresSecret(t *testing.T) {
	svc := &fakeCommandService{}
	handler := newCommandHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands/pending", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, svc.polled)
}
