package earnings

import (
	"math"
	"time"

	"github.com/zapshift/zapshift/internal/models"
	"github.com/pkg/errors"
)

var ErrInvalidCost = errors.New("earnings: parcel cost is missing or not a valid amount")

// Доли райдера от стоимости доставки. Плоские ставки, зависят только
// от совпадения district'ов, не от веса и не от типа посылки.
type SplitRates struct {
	SameDistrict  float64
	CrossDistrict float64
}

func DefaultSplitRates() SplitRates {
	return SplitRates{SameDistrict: 0.8, CrossDistrict: 0.3}
}

// Summary is an aggregate over one rider's delivered parcels. All
// monetary fields are in the same currency unit as the input costs;
// rounding is left to the presentation layer.
type Summary struct {
	Total          float64 `json:"total"`
	TotalCashedOut float64 `json:"totalCashedOut"`
	TotalPending   float64 `json:"totalPending"`

	Today     float64 `json:"today"`
	ThisWeek  float64 `json:"thisWeek"`
	ThisMonth float64 `json:"thisMonth"`
	ThisYear  float64 `json:"thisYear"`

	AveragePerDelivery float64 `json:"averagePerDelivery"`

	TotalDeliveries int `json:"totalDeliveries"`
	CashedOutCount  int `json:"cashedOutCount"`
	PendingCount    int `json:"pendingCount"`
}

// ForDelivery computes the rider's earning for one delivered parcel:
// cost * 0.8 within the district, cost * 0.3 across districts.
// A missing or non-finite cost fails loudly — silently treating it as
// zero would corrupt aggregate sums without a trace.
func ForDelivery(p *models.Parcel, rates SplitRates) (float64, error) {
	if math.IsNaN(p.Cost) || math.IsInf(p.Cost, 0) || p.Cost < 0 {
		return 0, errors.Wrapf(ErrInvalidCost, "parcel %s", p.TrackingID)
	}
	if p.SameDistrict() {
		return p.Cost * rates.SameDistrict, nil
	}
	return p.Cost * rates.CrossDistrict, nil
}

// Summarize aggregates earnings over a rider's delivered parcels.
// "now" is snapshotted once by the caller so every bucket in one
// summary is evaluated against the same instant. A malformed cost
// rejects the whole batch: a partial sum over money is worse than no
// sum.
func Summarize(parcels []*models.Parcel, now time.Time, rates SplitRates) (Summary, error) {
	var s Summary
	s.TotalDeliveries = len(parcels)

	dayStart := startOfDay(now)
	weekStart := startOfWeek(now)
	monthStart := startOfMonth(now)
	yearStart := startOfYear(now)

	for _, p := range parcels {
		earning, err := ForDelivery(p, rates)
		if err != nil {
			return Summary{}, err
		}

		s.Total += earning
		if p.CashoutStatus == models.CashoutStatusCashedOut {
			s.TotalCashedOut += earning
			s.CashedOutCount++
		} else {
			s.TotalPending += earning
			s.PendingCount++
		}

		if p.DeliveredAt == nil {
			continue
		}
		at := *p.DeliveredAt
		if !at.Before(dayStart) {
			s.Today += earning
		}
		if !at.Before(weekStart) {
			s.ThisWeek += earning
		}
		if !at.Before(monthStart) {
			s.ThisMonth += earning
		}
		if !at.Before(yearStart) {
			s.ThisYear += earning
		}
	}

	if s.TotalDeliveries > 0 {
		s.AveragePerDelivery = s.Total / float64(s.TotalDeliveries)
	}
	return s, nil
}
