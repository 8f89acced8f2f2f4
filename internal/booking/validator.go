package booking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"labportal/internal/models"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Rules holds the business-hour and duration limits applied to requests.
type Rules struct {
	OpenTime          string        // first bookable minute for labs, HH:mm
	CloseTime         string        // last bookable minute for labs, HH:mm
	MinLabDuration    time.Duration // shortest lab booking
	MaxLabDayDuration time.Duration // longest lab booking that starts and ends on the same day
}

func DefaultRules() Rules {
	return Rules{
		OpenTime:          "09:00",
		CloseTime:         "18:00",
		MinLabDuration:    time.Hour,
		MaxLabDayDuration: 9 * time.Hour,
	}
}

// Validator checks a candidate booking against the portal's business rules.
// Rules are applied in a fixed order and the first failure is returned.
type Validator struct {
	rules Rules
	open  int
	close int
	loc   *time.Location
	now   func() time.Time
}

func NewValidator(rules Rules, loc *time.Location, now func() time.Time) (*Validator, error) {
	def := DefaultRules()
	if rules.OpenTime == "" {
		rules.OpenTime = def.OpenTime
	}
	if rules.CloseTime == "" {
		rules.CloseTime = def.CloseTime
	}
	if rules.MinLabDuration <= 0 {
		rules.MinLabDuration = def.MinLabDuration
	}
	if rules.MaxLabDayDuration <= 0 {
		rules.MaxLabDayDuration = def.MaxLabDayDuration
	}
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}

	open, err := clockMinutes(rules.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("open time %q: %w", rules.OpenTime, err)
	}
	closing, err := clockMinutes(rules.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("close time %q: %w", rules.CloseTime, err)
	}
	if closing <= open {
		return nil, fmt.Errorf("close time %s must be after open time %s", rules.CloseTime, rules.OpenTime)
	}

	return &Validator{rules: rules, open: open, close: closing, loc: loc, now: now}, nil
}

// Validate returns nil when b may be submitted, or a *ValidationError.
func (v *Validator) Validate(b *models.Booking) error {
	start, err := v.parseDate("startDate", b.StartDate)
	if err != nil {
		return err
	}
	end, err := v.parseDate("endDate", b.EndDate)
	if err != nil {
		return err
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return invalid("startDate", fmt.Sprintf(
				"bookings are only allowed Monday to Friday: %s falls on a %s", d.Format(models.DateLayout), wd))
		}
	}

	if b.ItemType == models.ItemTypeLab {
		return v.validateLab(b, start, end)
	}
	return v.validateEquipment(start, end)
}

func (v *Validator) validateEquipment(start, end time.Time) error {
	if end.Before(start) {
		return invalid("endDate", "endDate must be on or after startDate")
	}
	now := v.now().In(v.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
	if start.Before(today) {
		return invalid("startDate", "startDate cannot be in the past")
	}
	return nil
}

func (v *Validator) validateLab(b *models.Booking, startDay, endDay time.Time) error {
	startMin, err := v.parseClock("startTime", b.StartTime)
	if err != nil {
		return err
	}
	endMin, err := v.parseClock("endTime", b.EndTime)
	if err != nil {
		return err
	}

	start := startDay.Add(time.Duration(startMin) * time.Minute)
	end := endDay.Add(time.Duration(endMin) * time.Minute)
	if !end.After(start) {
		return invalid("endTime", "end date and time must be after start date and time")
	}

	window := fmt.Sprintf("between %s and %s", formatClock(v.open), formatClock(v.close))
	if startMin < v.open || startMin > v.close {
		return invalid("startTime", "startTime must be "+window)
	}
	if endMin < v.open || endMin > v.close {
		return invalid("endTime", "endTime must be "+window)
	}

	if start.Before(v.now().In(v.loc)) {
		return invalid("startTime", "booking start cannot be in the past")
	}

	duration := end.Sub(start)
	if duration < v.rules.MinLabDuration {
		return invalid("endTime", fmt.Sprintf("lab bookings must be at least %s long", humanDuration(v.rules.MinLabDuration)))
	}
	if startDay.Equal(endDay) && duration > v.rules.MaxLabDayDuration {
		return invalid("endTime", fmt.Sprintf("lab bookings cannot exceed %s in a single day", humanDuration(v.rules.MaxLabDayDuration)))
	}
	return nil
}

func (v *Validator) parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid(field, field+" is required")
	}
	d, err := time.ParseInLocation(models.DateLayout, raw, v.loc)
	if err != nil {
		return time.Time{}, invalid(field, field+" must be a valid date in YYYY-MM-DD format")
	}
	return d, nil
}

func (v *Validator) parseClock(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid(field, field+" is required for lab bookings")
	}
	m, err := clockMinutes(raw)
	if err != nil {
		return 0, invalid(field, field+" must be in 24-hour HH:mm format")
	}
	return m, nil
}

func clockMinutes(raw string) (int, error) {
	if !clockPattern.MatchString(raw) {
		return 0, fmt.Errorf("expected HH:mm, got %q", raw)
	}
	t, err := time.Parse(models.TimeLayout, raw)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders minutes-since-midnight as "9:00 AM".
func formatClock(minutes int) string {
	return time.Date(2000, 1, 1, 0, minutes, 0, 0, time.UTC).Format("3:04 PM")
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
