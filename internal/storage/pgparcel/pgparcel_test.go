package pgparcel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/zapshift/zapshift/internal/models"
)

func startStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "zapshift_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/zapshift_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGParcel_BookingToCashoutFlow(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC()

	// пользователь + райдер
	_, err := st.UpsertUser(ctx, "rid@x.io", "Rid", now)
	require.NoError(t, err)
	rider, err := st.CreateRider(ctx, models.RiderApplyInput{Name: "Rid", Email: "rid@x.io", District: "Dhaka"})
	require.NoError(t, err)
	require.Equal(t, models.RiderStatusPending, rider.Status)

	// дубликат заявки
	_, err = st.CreateRider(ctx, models.RiderApplyInput{Name: "Rid", Email: "rid@x.io"})
	require.ErrorIs(t, err, ErrConflict)

	rider, err = st.UpdateRiderStatus(ctx, rider.ID, models.RiderStatusActive)
	require.NoError(t, err)

	avail, err := st.ListAvailableRiders(ctx, "Dhaka")
	require.NoError(t, err)
	require.Len(t, avail, 1)

	// бронирование
	p, err := st.CreateParcel(ctx, &models.Parcel{
		TrackingID:     "PCL-20250618-AB12C",
		Type:           models.ParcelTypeNonDocument,
		Weight:         5,
		CreatedBy:      "cust@x.io",
		SenderCenter:   "Dhaka",
		ReceiverCenter: "Dhaka",
		Cost:           190,
		PaymentStatus:  models.PaymentStatusUnpaid,
		DeliveryStatus: models.DeliveryStatusNotCollected,
		CreatedAt:      now,
	})
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	// назначение до оплаты запрещено
	require.ErrorIs(t, st.AssignRider(ctx, p.ID, rider), ErrConflict)

	// оплата
	pay, err := st.RecordPayment(ctx, &models.Payment{
		ParcelID: p.ID, Email: "cust@x.io", Amount: 190, TransactionID: "txn_1", PaidAt: now,
	})
	require.NoError(t, err)
	require.NotZero(t, pay.ID)

	// повторная оплата
	_, err = st.RecordPayment(ctx, &models.Payment{ParcelID: p.ID, Email: "cust@x.io", Amount: 190, TransactionID: "txn_2", PaidAt: now})
	require.ErrorIs(t, err, ErrConflict)

	// оплаченную не удалить
	require.ErrorIs(t, st.DeleteParcel(ctx, p.ID), ErrConflict)

	// назначение
	require.NoError(t, st.AssignRider(ctx, p.ID, rider))
	got, err := st.GetParcelByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusRiderAssigned, got.DeliveryStatus)
	require.Equal(t, rider.ID, got.AssignedRiderID)

	busy, err := st.GetRiderByID(ctx, rider.ID)
	require.NoError(t, err)
	require.Equal(t, models.RiderWorkInDelivery, busy.WorkStatus)

	// cashout до доставки запрещён
	require.ErrorIs(t, st.CashoutParcel(ctx, p.ID, now), ErrConflict)

	// pickup -> delivered
	require.NoError(t, st.MarkInTransit(ctx, p.ID, now))
	require.ErrorIs(t, st.MarkInTransit(ctx, p.ID, now), ErrConflict)
	require.NoError(t, st.MarkDelivered(ctx, p.ID, now))

	got, err = st.GetParcelByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusDelivered, got.DeliveryStatus)
	require.NotNil(t, got.PickedAt)
	require.NotNil(t, got.DeliveredAt)

	freed, err := st.GetRiderByID(ctx, rider.ID)
	require.NoError(t, err)
	require.Equal(t, models.RiderWorkAvailable, freed.WorkStatus)

	// cashout монотонный
	require.NoError(t, st.CashoutParcel(ctx, p.ID, now))
	require.ErrorIs(t, st.CashoutParcel(ctx, p.ID, now), ErrConflict)

	done, err := st.ListRiderParcels(ctx, rider.Email, true)
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, models.CashoutStatusCashedOut, done[0].CashoutStatus)
}

func TestPGParcel_ListFiltersAndTrackingEvents(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC()

	for i, tid := range []string{"PCL-A", "PCL-B"} {
		status := models.PaymentStatusUnpaid
		if i == 1 {
			status = models.PaymentStatusPaid
		}
		_, err := st.CreateParcel(ctx, &models.Parcel{
			TrackingID:     tid,
			Type:           models.ParcelTypeDocument,
			CreatedBy:      "cust@x.io",
			SenderCenter:   "Dhaka",
			ReceiverCenter: "Sylhet",
			Cost:           80,
			PaymentStatus:  status,
			DeliveryStatus: models.DeliveryStatusNotCollected,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	all, err := st.ListParcels(ctx, models.ParcelFilter{CreatedBy: "cust@x.io"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// новые первыми
	require.Equal(t, "PCL-B", all[0].TrackingID)

	paid, err := st.ListParcels(ctx, models.ParcelFilter{PaymentStatus: models.PaymentStatusPaid, DeliveryStatus: models.DeliveryStatusNotCollected})
	require.NoError(t, err)
	require.Len(t, paid, 1)

	// события трекинга с дедупом
	ev := &models.TrackingEvent{TrackingID: "PCL-A", Status: models.TrackingEventCreated, UpdatedBy: "cust@x.io", EventTime: now}
	require.NoError(t, st.AppendTrackingEvent(ctx, ev))
	require.NoError(t, st.AppendTrackingEvent(ctx, ev)) // дубликат молча гасится
	require.NoError(t, st.AppendTrackingEvent(ctx, &models.TrackingEvent{
		TrackingID: "PCL-A", Status: models.TrackingEventPaymentReceived, EventTime: now.Add(time.Minute),
	}))

	evs, err := st.ListTrackingEvents(ctx, "PCL-A")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, models.TrackingEventCreated, evs[0].Status)

	// отмена только из not_collected
	require.NoError(t, st.CancelParcel(ctx, all[0].ID))
	require.ErrorIs(t, st.CancelParcel(ctx, all[0].ID), ErrConflict)
}

func TestPGParcel_UserRoles(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC()

	u, err := st.UpsertUser(ctx, "a@x.io", "A", now)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, u.Role)

	// повторный логин не сбивает роль
	_, err = st.UpdateUserRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)
	again, err := st.UpsertUser(ctx, "a@x.io", "A", now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, again.Role)

	found, err := st.SearchUsers(ctx, "a@", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = st.GetUserByEmail(ctx, "missing@x.io")
	require.ErrorIs(t, err, ErrNotFound)
}
