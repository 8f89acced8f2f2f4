package notify

import (
	"testing"

	"labportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labBooking() *models.Booking {
	return &models.Booking{
		ID: "A", ItemID: "L1", ItemType: models.ItemTypeLab, ItemTitle: "Wet Lab",
		UserEmail: "ana@example.edu", UserName: "Ana",
		StartDate: "2024-06-03", EndDate: "2024-06-03", StartTime: "09:00", EndTime: "11:00",
		Status: models.StatusPending,
	}
}

func TestComposeRevokedSaysRevokedWithReason(t *testing.T) {
	msg, err := Compose(models.NotifyStatusRevoked, labBooking(), models.NotifyContext{AdminNote: "lab closed for maintenance"})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "revoked")
	assert.Contains(t, msg.Body, "revoked")
	assert.NotContains(t, msg.Body, "declined")
	assert.Contains(t, msg.Body, "lab closed for maintenance")
}

func TestComposeAutoDeclineNamesApprovedBooking(t *testing.T) {
	msg, err := Compose(models.NotifyStatusDeclined, labBooking(), models.NotifyContext{RelatedBookingID: "B-77"})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "B-77")
	assert.Contains(t, msg.Body, "2024-06-03 09:00-11:00")
}

func TestComposeConflictListsEveryConflict(t *testing.T) {
	conflicts := []models.ConflictRecord{
		{BookingID: "X", UserName: "Xi", Status: models.StatusApproved, ConflictType: models.ConflictExactMatch},
		{BookingID: "Y", UserName: "Yo", Status: models.StatusPending, ConflictType: models.ConflictPartialOverlap},
	}
	for _, kind := range []models.NotificationKind{models.NotifyConflictDetectedUser, models.NotifyConflictDetectedAdmin} {
		msg, err := Compose(kind, labBooking(), models.NotifyContext{Conflicts: conflicts})
		require.NoError(t, err)
		assert.Contains(t, msg.Body, "X by Xi (approved, exact_match)")
		assert.Contains(t, msg.Body, "Y by Yo (pending, partial_overlap)")
	}
}

func TestComposeEquipmentRange(t *testing.T) {
	b := &models.Booking{ItemType: models.ItemTypeEquipment, StartDate: "2024-06-03", EndDate: "2024-06-05"}
	assert.Equal(t, "2024-06-03 to 2024-06-05", describeRange(b))
	b.EndDate = b.StartDate
	assert.Equal(t, "2024-06-03", describeRange(b))
}

func TestComposeUnknownKind(t *testing.T) {
	_, err := Compose("carrier-pigeon", labBooking(), models.NotifyContext{})
	assert.Error(t, err)
}

func TestAudienceOf(t *testing.T) {
	assert.Equal(t, AudienceAdmin, AudienceOf(models.NotifyConflictClearedAdmin))
	assert.Equal(t, AudienceAdmin, AudienceOf(models.NotifyConflictDetectedAdmin))
	assert.Equal(t, AudienceUser, AudienceOf(models.NotifyStatusApproved))
	assert.Equal(t, AudienceUser, AudienceOf(models.NotifyConflictDetectedUser))
}
