package earnings

import (
	"math"
	"testing"
	"time"

	"github.com/zapshift/zapshift/internal/models"
	"github.com/stretchr/testify/require"
)

func delivered(cost float64, sender, receiver string, at time.Time, cashedOut bool) *models.Parcel {
	p := &models.Parcel{
		TrackingID:     "PCL-TEST",
		Cost:           cost,
		SenderCenter:   sender,
		ReceiverCenter: receiver,
		DeliveryStatus: models.DeliveryStatusDelivered,
		DeliveredAt:    &at,
	}
	if cashedOut {
		p.CashoutStatus = models.CashoutStatusCashedOut
	}
	return p
}

func TestForDelivery_SplitRates(t *testing.T) {
	rates := DefaultSplitRates()

	e, err := ForDelivery(&models.Parcel{Cost: 200, SenderCenter: "Dhaka", ReceiverCenter: "Dhaka"}, rates)
	require.NoError(t, err)
	require.Equal(t, 160.0, e)

	e, err = ForDelivery(&models.Parcel{Cost: 100, SenderCenter: "Dhaka", ReceiverCenter: "Sylhet"}, rates)
	require.NoError(t, err)
	require.Equal(t, 30.0, e)
}

func TestForDelivery_InvalidCost(t *testing.T) {
	rates := DefaultSplitRates()
	for _, cost := range []float64{math.NaN(), math.Inf(1), -5} {
		_, err := ForDelivery(&models.Parcel{Cost: cost}, rates)
		require.ErrorIs(t, err, ErrInvalidCost)
	}
}

func TestForDelivery_Idempotent(t *testing.T) {
	p := &models.Parcel{Cost: 123.45, SenderCenter: "A", ReceiverCenter: "B"}
	a, err := ForDelivery(p, DefaultSplitRates())
	require.NoError(t, err)
	b, err := ForDelivery(p, DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, a, b)
	// стоимость не мутируется
	require.Equal(t, 123.45, p.Cost)
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(nil, time.Now(), DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, Summary{}, s)
	// деления на ноль нет
	require.Equal(t, 0.0, s.AveragePerDelivery)
}

func TestSummarize_CashoutPartition(t *testing.T) {
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC) // среда
	ps := []*models.Parcel{
		delivered(200, "Dhaka", "Dhaka", now.Add(-time.Hour), true),   // 160 cashed out
		delivered(100, "Dhaka", "Sylhet", now.Add(-time.Hour), false), // 30 pending
		delivered(50, "Bogra", "Bogra", now.Add(-time.Hour), false),   // 40 pending
	}

	s, err := Summarize(ps, now, DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, 230.0, s.Total)
	require.Equal(t, 160.0, s.TotalCashedOut)
	require.Equal(t, 70.0, s.TotalPending)
	require.Equal(t, s.Total, s.TotalCashedOut+s.TotalPending)
	require.Equal(t, 3, s.TotalDeliveries)
	require.Equal(t, 1, s.CashedOutCount)
	require.Equal(t, 2, s.PendingCount)
	require.InDelta(t, 230.0/3, s.AveragePerDelivery, 1e-9)
}

func TestSummarize_TimeBuckets(t *testing.T) {
	// Среда 18.06.2025; начало ISO-недели — понедельник 16.06.
	now := time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)

	ps := []*models.Parcel{
		delivered(100, "A", "A", time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC), false),  // сегодня: 80
		delivered(100, "A", "A", time.Date(2025, 6, 16, 1, 0, 0, 0, time.UTC), false),  // эта неделя: 80
		delivered(100, "A", "A", time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), false),  // этот месяц: 80
		delivered(100, "A", "A", time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC), false), // этот год: 80
		delivered(100, "A", "A", time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), false), // прошлый год
	}

	s, err := Summarize(ps, now, DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, 80.0, s.Today)
	require.Equal(t, 160.0, s.ThisWeek)
	require.Equal(t, 240.0, s.ThisMonth)
	require.Equal(t, 320.0, s.ThisYear)
	require.Equal(t, 400.0, s.Total)
}

func TestSummarize_SundayBelongsToWeekStartedMonday(t *testing.T) {
	// Воскресенье 22.06.2025: неделя всё ещё с понедельника 16.06.
	now := time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC)
	ps := []*models.Parcel{
		delivered(100, "A", "A", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), false),
		delivered(100, "A", "A", time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC), false), // прошлое воскресенье
	}
	s, err := Summarize(ps, now, DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, 80.0, s.ThisWeek)
}

func TestSummarize_MalformedCostRejectsBatch(t *testing.T) {
	now := time.Now()
	ps := []*models.Parcel{
		delivered(100, "A", "A", now, false),
		delivered(math.NaN(), "A", "B", now, false),
	}
	_, err := Summarize(ps, now, DefaultSplitRates())
	require.ErrorIs(t, err, ErrInvalidCost)
}

func TestSummarize_MissingDeliveredAtSkipsBucketsOnly(t *testing.T) {
	now := time.Now()
	p := &models.Parcel{Cost: 100, SenderCenter: "A", ReceiverCenter: "A"}
	s, err := Summarize([]*models.Parcel{p}, now, DefaultSplitRates())
	require.NoError(t, err)
	require.Equal(t, 80.0, s.Total)
	require.Equal(t, 0.0, s.Today)
	require.Equal(t, 0.0, s.ThisYear)
}
