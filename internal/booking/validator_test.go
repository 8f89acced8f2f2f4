package booking

import (
	"errors"
	"testing"
	"time"

	"labportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-05-27 08:00 UTC.
var fixedNow = time.Date(2024, 5, 27, 8, 0, 0, 0, time.UTC)

func newTestValidator(t *testing.T, now time.Time) *Validator {
	t.Helper()
	v, err := NewValidator(DefaultRules(), time.UTC, func() time.Time { return now })
	require.NoError(t, err)
	return v
}

func equipment(start, end string) *models.Booking {
	return &models.Booking{ItemID: "e1", ItemType: models.ItemTypeEquipment, StartDate: start, EndDate: end}
}

func lab(start, end, startTime, endTime string) *models.Booking {
	return &models.Booking{
		ItemID: "l1", ItemType: models.ItemTypeLab,
		StartDate: start, EndDate: end, StartTime: startTime, EndTime: endTime,
	}
}

func TestValidator_Valid(t *testing.T) {
	v := newTestValidator(t, fixedNow)

	assert.NoError(t, v.Validate(equipment("2024-06-03", "2024-06-07")))
	assert.NoError(t, v.Validate(equipment("2024-05-27", "2024-05-27")), "today is bookable")
	assert.NoError(t, v.Validate(lab("2024-06-03", "2024-06-03", "09:00", "11:00")))
	assert.NoError(t, v.Validate(lab("2024-06-03", "2024-06-03", "09:00", "18:00")), "full 9 hour day")
	assert.NoError(t, v.Validate(lab("2024-06-03", "2024-06-04", "17:00", "10:00")), "multi-day span is not capped")
}

func TestValidator_Weekend(t *testing.T) {
	v := newTestValidator(t, fixedNow)

	tests := []struct {
		name    string
		booking *models.Booking
		day     string
	}{
		{"saturday start", equipment("2024-06-08", "2024-06-09"), "Saturday"},
		{"sunday only", equipment("2024-06-09", "2024-06-09"), "Sunday"},
		{"range spans weekend", equipment("2024-06-07", "2024-06-10"), "Saturday"},
		{"lab on saturday", lab("2024-06-08", "2024-06-08", "09:00", "10:00"), "Saturday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.booking)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.day)
		})
	}
}

func TestValidator_Dates(t *testing.T) {
	v := newTestValidator(t, fixedNow)

	err := v.Validate(equipment("", "2024-06-03"))
	require.Error(t, err)
	assert.Equal(t, "startDate is required", err.Error())

	err = v.Validate(equipment("2024-06-03", "2024-13-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endDate must be a valid date")

	err = v.Validate(equipment("2024-06-05", "2024-06-03"))
	require.Error(t, err)
	assert.Equal(t, "endDate must be on or after startDate", err.Error())

	err = v.Validate(equipment("2024-05-24", "2024-05-24"))
	require.Error(t, err)
	assert.Equal(t, "startDate cannot be in the past", err.Error())
}

func TestValidator_LabTimes(t *testing.T) {
	v := newTestValidator(t, fixedNow)

	tests := []struct {
		name    string
		booking *models.Booking
		field   string
		reason  string
	}{
		{"missing start time", lab("2024-06-03", "2024-06-03", "", "11:00"), "startTime", "startTime is required for lab bookings"},
		{"short hour format", lab("2024-06-03", "2024-06-03", "9:00", "11:00"), "startTime", "startTime must be in 24-hour HH:mm format"},
		{"hour out of range", lab("2024-06-03", "2024-06-03", "09:00", "24:00"), "endTime", "endTime must be in 24-hour HH:mm format"},
		{"end before start", lab("2024-06-03", "2024-06-03", "11:00", "10:00"), "endTime", "end date and time must be after start date and time"},
		{"before opening", lab("2024-06-03", "2024-06-03", "08:30", "09:30"), "startTime", "startTime must be between 9:00 AM and 6:00 PM"},
		{"after closing", lab("2024-06-03", "2024-06-03", "17:00", "18:30"), "endTime", "endTime must be between 9:00 AM and 6:00 PM"},
		{"too short", lab("2024-06-03", "2024-06-03", "09:00", "09:30"), "endTime", "lab bookings must be at least 1 hour long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.booking)
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, tt.reason, vErr.Reason)
			assert.ErrorIs(t, err, ErrInvalidBooking)
		})
	}
}

func TestValidator_LabInPast(t *testing.T) {
	v := newTestValidator(t, time.Date(2024, 5, 27, 10, 0, 0, 0, time.UTC))

	err := v.Validate(lab("2024-05-27", "2024-05-27", "09:00", "11:00"))
	require.Error(t, err)
	assert.Equal(t, "booking start cannot be in the past", err.Error())

	assert.NoError(t, v.Validate(lab("2024-05-27", "2024-05-27", "11:00", "12:00")))
}

func TestValidator_SameDayCap(t *testing.T) {
	rules := DefaultRules()
	rules.MaxLabDayDuration = 4 * time.Hour
	v, err := NewValidator(rules, time.UTC, func() time.Time { return fixedNow })
	require.NoError(t, err)

	err = v.Validate(lab("2024-06-03", "2024-06-03", "09:00", "14:00"))
	require.Error(t, err)
	assert.Equal(t, "lab bookings cannot exceed 4 hours in a single day", err.Error())

	assert.NoError(t, v.Validate(lab("2024-06-03", "2024-06-04", "09:00", "14:00")))
}

func TestNewValidator_BadRules(t *testing.T) {
	_, err := NewValidator(Rules{OpenTime: "18:00", CloseTime: "09:00"}, time.UTC, nil)
	assert.Error(t, err)

	_, err = NewValidator(Rules{OpenTime: "nine"}, time.UTC, nil)
	assert.Error(t, err)
}
