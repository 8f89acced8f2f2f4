package database

import (
	"context"
	"testing"

	"labportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationFixture(bookingID string) *models.NotificationRecord {
	return &models.NotificationRecord{
		BookingID: bookingID,
		Kind:      models.NotifyStatusApproved,
		Recipient: "a@lab.edu",
		Subject:   "Booking approved",
		Success:   true,
		MessageID: "m-1",
	}
}

func TestNotificationHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveNotification(ctx, notificationFixture("A")))
	failed := notificationFixture("A")
	failed.Kind = models.NotifyConflictDetectedAdmin
	failed.Success = false
	failed.MessageID = ""
	failed.Error = "smtp down"
	require.NoError(t, db.SaveNotification(ctx, failed))
	require.NoError(t, db.SaveNotification(ctx, notificationFixture("B")))

	records, err := db.ListNotifications(ctx, "A")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Success)
	assert.Equal(t, models.NotifyConflictDetectedAdmin, records[1].Kind)
	assert.Equal(t, "smtp down", records[1].Error)
	assert.NotZero(t, records[1].ID)
}
