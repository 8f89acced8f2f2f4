package booking

import (
	"testing"

	"labportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflicts(t *testing.T) {
	candidate := pendingLab("new", "2024-06-03", "10:00", "12:00")

	approved := pendingLab("approved", "2024-06-03", "09:00", "13:00")
	approved.Status = models.StatusApproved
	pending := pendingLab("pending", "2024-06-03", "11:00", "12:00")
	declined := pendingLab("declined", "2024-06-03", "10:00", "12:00")
	declined.Status = models.StatusDeclined
	later := pendingLab("later", "2024-06-03", "12:00", "14:00")
	self := pendingLab("new", "2024-06-03", "10:00", "12:00")

	conflicts := FindConflicts(candidate, []*models.Booking{approved, pending, declined, later, self, nil})
	require.Len(t, conflicts, 2)

	assert.Equal(t, "approved", conflicts[0].BookingID)
	assert.Equal(t, models.StatusApproved, conflicts[0].Status)
	assert.Equal(t, models.ConflictFullyContained, conflicts[0].ConflictType)

	assert.Equal(t, "pending", conflicts[1].BookingID)
	assert.Equal(t, models.ConflictFullyContains, conflicts[1].ConflictType)

	assert.True(t, HasCriticalConflict(conflicts))

	critical := FindConflicts(candidate, []*models.Booking{approved, pending}, CriticalOnly())
	require.Len(t, critical, 1)
	assert.Equal(t, "approved", critical[0].BookingID)
}

func TestFindConflicts_EquipmentBoundary(t *testing.T) {
	b1 := pendingEquipment("b1", "2024-05-01", "2024-05-03")
	b2 := pendingEquipment("b2", "2024-05-03", "2024-05-05")

	conflicts := FindConflicts(b2, []*models.Booking{b1})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictPartialOverlap, conflicts[0].ConflictType)
	assert.False(t, HasCriticalConflict(conflicts))
}

func TestFindConflicts_None(t *testing.T) {
	candidate := pendingLab("new", "2024-06-03", "09:00", "11:00")
	other := pendingLab("other", "2024-06-03", "09:00", "11:00")
	other.ItemID = "L2"

	assert.Empty(t, FindConflicts(candidate, []*models.Booking{other}))
	assert.False(t, HasCriticalConflict(nil))
}

func TestConflictWarning(t *testing.T) {
	assert.Equal(t, "", ConflictWarning(nil))

	conflicts := []models.ConflictRecord{
		{BookingID: "a", Status: models.StatusApproved},
		{BookingID: "b", Status: models.StatusPending},
	}
	assert.Equal(t, "Found 2 conflicting booking(s): 1 already approved, 1 pending review", ConflictWarning(conflicts))
	assert.Equal(t, "Found 1 conflicting booking(s): 1 pending review", ConflictWarning(conflicts[1:]))
}

func TestEstimateCost(t *testing.T) {
	labItem := &models.Item{ID: "L1", Type: models.ItemTypeLab, PriceRate: 25}
	equipmentItem := &models.Item{ID: "E1", Type: models.ItemTypeEquipment, PriceRate: 40}

	rules := DefaultRules()

	assert.Equal(t, 50.0, EstimateCost(labItem, pendingLab("l", "2024-06-03", "09:00", "11:00"), rules))
	assert.Equal(t, 37.5, EstimateCost(labItem, pendingLab("l", "2024-06-03", "09:00", "10:30"), rules))
	assert.Equal(t, 120.0, EstimateCost(equipmentItem, pendingEquipment("e", "2024-05-01", "2024-05-03"), rules))
	assert.Equal(t, 0.0, EstimateCost(nil, pendingEquipment("e", "2024-05-01", "2024-05-03"), rules))

	// Mon 16:00 to Wed 10:00: 2h + 9h + 1h inside the 09:00-18:00 window.
	multiDay := pendingLab("l", "2024-06-03", "16:00", "10:00")
	multiDay.EndDate = "2024-06-05"
	assert.Equal(t, 300.0, EstimateCost(labItem, multiDay, rules))
}
