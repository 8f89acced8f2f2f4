package booking

import (
	"math"
	"time"

	"labportal/internal/models"
)

// EstimateCost prices a booking from the item's rate. Labs are billed per hour
// inside the daily window of rules, so a multi-day lab span does not bill the
// nights. Equipment is billed per whole day, inclusive. The result is rounded to cents.
func EstimateCost(item *models.Item, b *models.Booking, rules Rules) float64 {
	if item == nil || item.PriceRate <= 0 {
		return 0
	}
	p, err := PeriodOf(b)
	if err != nil || !p.End.After(p.Start) {
		return 0
	}

	var units float64
	if b.ItemType == models.ItemTypeLab {
		units = labHours(b, p, rules)
	} else {
		units = math.Ceil(p.End.Sub(p.Start).Hours() / 24)
	}
	return math.Round(units*item.PriceRate*100) / 100
}

func labHours(b *models.Booking, p Period, rules Rules) float64 {
	if b.StartDate == b.EndDate {
		return p.End.Sub(p.Start).Hours()
	}

	def := DefaultRules()
	open, err := clockMinutes(rules.OpenTime)
	if err != nil {
		open, _ = clockMinutes(def.OpenTime)
	}
	closing, err := clockMinutes(rules.CloseTime)
	if err != nil {
		closing, _ = clockMinutes(def.CloseTime)
	}
	startMin, err1 := clockMinutes(b.StartTime)
	endMin, err2 := clockMinutes(b.EndTime)
	if err1 != nil || err2 != nil {
		return p.End.Sub(p.Start).Hours()
	}

	startDay, _ := time.Parse(models.DateLayout, b.StartDate)
	endDay, _ := time.Parse(models.DateLayout, b.EndDate)
	days := int(endDay.Sub(startDay).Hours()/24) + 1

	minutes := max(closing-startMin, 0) + (days-2)*(closing-open) + max(endMin-open, 0)
	return float64(minutes) / 60
}
