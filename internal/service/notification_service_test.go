package service

import (
	"context"
	"testing"

	"github.com/danishayman/cpc357-project/internal/domain"
	"github.com/danishayman/cpc357-project/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetSettings_DefaultsWhenAbsent(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	settings, err := svc.GetSettings(context.Background(), "user-1", "owner@example.com")
	require.NoError(t, err)

	assert.True(t, settings.EmailEnabled)
	assert.Equal(t, domain.DefaultFoodLowThreshold, settings.FoodLowThreshold)
	assert.True(t, settings.WaterLowEnabled)
	assert.True(t, settings.DeviceOfflineEnabled)
}

func TestSaveSettings_RejectsNegativeThreshold(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationsRepo{}, zap.NewNop())

	_, err := svc.SaveSettings(context.Background(), UpdateSettingsRequest{
		UserID:           "user-1",
		FoodLowThreshold: -5,
	})
	require.Error(t, err)
}

func TestSaveSettings_RejectsMalformedEmail(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationsRepo{}, zap.NewNop())

	_, err := svc.SaveSettings(context.Background(), UpdateSettingsRequest{
		UserID: "user-1",
		Email:  "not an email",
	})
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAddRecipient_NormalizesEmail(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	rec, err := svc.AddRecipient(context.Background(), "user-1", "  Owner@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", rec.Email)
}

func TestAddRecipient_DuplicatePropagated(t *testing.T) {
	repo := &fakeNotificationsRepo{}
	svc := NewNotificationService(repo, zap.NewNop())

	_, err := svc.AddRecipient(context.Background(), "user-1", "dup@example.com")
	require.NoError(t, err)
	_, err = svc.AddRecipient(context.Background(), "user-1", "dup@example.com")
	require.ErrorIs(t, err, repository.ErrDuplicateRecipient)
}

func TestAddRecipient_InvalidEmail(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationsRepo{}, zap.NewNop())

	_, err := svc.AddRecipient(context.Background(), "user-1", "plainstring")
	require.ErrorIs(t, err, ErrInvalidEmail)
}
