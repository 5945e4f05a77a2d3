package parcels

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/broker/messages"
	"github.com/zapshift/zapshift/internal/cache"
	"github.com/zapshift/zapshift/internal/earnings"
	"github.com/zapshift/zapshift/internal/integrations/payments"
	"github.com/zapshift/zapshift/internal/models"
	"github.com/zapshift/zapshift/internal/pricing"
)

var (
	ErrAlreadyPaid      = errors.New("parcels: parcel is already paid")
	ErrPaymentDeclined  = errors.New("parcels: payment declined")
	ErrRiderUnavailable = errors.New("parcels: rider is not active and available")
	ErrBadTransition    = errors.New("parcels: delivery status transition not allowed")
	ErrNotParcelRider   = errors.New("parcels: parcel is assigned to another rider")
)

type Repository interface {
	CreateParcel(ctx context.Context, p *models.Parcel) (*models.Parcel, error)
	GetParcelByID(ctx context.Context, id uint64) (*models.Parcel, error)
	ListParcels(ctx context.Context, f models.ParcelFilter) ([]*models.Parcel, error)
	ListRiderParcels(ctx context.Context, riderEmail string, delivered bool) ([]*models.Parcel, error)
	DeleteParcel(ctx context.Context, id uint64) error
	CancelParcel(ctx context.Context, id uint64) error
	AssignRider(ctx context.Context, parcelID uint64, rider *models.Rider) error
	MarkInTransit(ctx context.Context, parcelID uint64, at time.Time) error
	MarkDelivered(ctx context.Context, parcelID uint64, at time.Time) error
	CashoutParcel(ctx context.Context, parcelID uint64, at time.Time) error

	GetRiderByID(ctx context.Context, id uint64) (*models.Rider, error)

	RecordPayment(ctx context.Context, p *models.Payment) (*models.Payment, error)
	ListPaymentsByEmail(ctx context.Context, email string) ([]*models.Payment, error)

	AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, trackingID string) ([]*models.TrackingEvent, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Limiter — redis-ограничитель частоты (см. rediscache.RateLimiter).
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Config struct {
	TrackingTopic string
	// Бронирований на одного пользователя в минуту; <=0 — без лимита.
	BookingRateLimit int64
	TimelineTTL      time.Duration
	SplitRates       earnings.SplitRates
	Currency         string
}

type Service struct {
	repo     Repository
	cache    cache.BytesCache
	producer Producer
	limiter  Limiter
	charger  payments.Client
	cfg      Config

	now func() time.Time
}

func New(repo Repository, c cache.BytesCache, producer Producer, limiter Limiter, charger payments.Client, cfg Config) *Service {
	if cfg.SplitRates == (earnings.SplitRates{}) {
		cfg.SplitRates = earnings.DefaultSplitRates()
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	return &Service{
		repo:     repo,
		cache:    c,
		producer: producer,
		limiter:  limiter,
		charger:  charger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Quote — чистый прайс-превью, ничего не сохраняет.
func (s *Service) Quote(parcelType string, weight float64, senderCenter, receiverCenter string) (pricing.Quote, error) {
	return pricing.ComputeDeliveryCost(parcelType, weight, senderCenter == receiverCenter)
}

// CreateParcel бронирует посылку. Cost считается только на сервере —
// клиентскому значению не доверяем и один раз записанный cost больше
// никогда не пересчитывается.
func (s *Service) CreateParcel(ctx context.Context, createdBy string, in models.ParcelCreateInput) (*models.Parcel, error) {
	if createdBy == "" {
		return nil, errors.New("createdBy is required")
	}
	if in.SenderCenter == "" || in.ReceiverCenter == "" {
		return nil, errors.New("sender_center and receiver_center are required")
	}

	q, err := pricing.ComputeDeliveryCost(in.Type, in.Weight, in.SenderCenter == in.ReceiverCenter)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil && s.cfg.BookingRateLimit > 0 {
		ok, n, err := s.limiter.Allow(ctx, "booking:"+createdBy, s.cfg.BookingRateLimit, time.Minute)
		if err != nil {
			// лимитер best-effort: redis недоступен — бронирование не блокируем
			slog.Warn("booking rate limiter unavailable", "err", err)
		} else if !ok {
			return nil, errors.Errorf("too many bookings (%d), try again later", n)
		}
	}

	now := s.now()
	p := &models.Parcel{
		TrackingID: generateTrackingID(now),
		Type:       in.Type,
		Title:      in.Title,
		Weight:     in.Weight,
		CreatedBy:  createdBy,

		SenderName: in.SenderName, SenderContact: in.SenderContact,
		SenderRegion: in.SenderRegion, SenderCenter: in.SenderCenter, SenderAddress: in.SenderAddress,
		ReceiverName: in.ReceiverName, ReceiverContact: in.ReceiverContact,
		ReceiverRegion: in.ReceiverRegion, ReceiverCenter: in.ReceiverCenter, ReceiverAddress: in.ReceiverAddress,

		Cost:           q.TotalCost,
		PaymentStatus:  models.PaymentStatusUnpaid,
		DeliveryStatus: models.DeliveryStatusNotCollected,
		CreatedAt:      now,
	}

	p, err = s.repo.CreateParcel(ctx, p)
	if err != nil {
		return nil, err
	}

	s.publishTracking(ctx, p.TrackingID, models.TrackingEventCreated,
		fmt.Sprintf("Created by %s", createdBy), createdBy, now)
	return p, nil
}

func (s *Service) GetParcel(ctx context.Context, id uint64) (*models.Parcel, error) {
	if id == 0 {
		return nil, errors.New("parcel id is required")
	}
	return s.repo.GetParcelByID(ctx, id)
}

func (s *Service) ListParcels(ctx context.Context, f models.ParcelFilter) ([]*models.Parcel, error) {
	return s.repo.ListParcels(ctx, f)
}

func (s *Service) DeleteParcel(ctx context.Context, id uint64) error {
	return s.repo.DeleteParcel(ctx, id)
}

func (s *Service) CancelParcel(ctx context.Context, id uint64, actor string) error {
	p, err := s.repo.GetParcelByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.CancelParcel(ctx, id); err != nil {
		return err
	}
	s.publishTracking(ctx, p.TrackingID, models.TrackingEventCancelled, "", actor, s.now())
	return nil
}

// Pay проводит оплату через внешний процессинг и фиксирует её.
// От процессинга ядру нужен только succeeded/failed.
func (s *Service) Pay(ctx context.Context, parcelID uint64, payerEmail, method string) (*models.Payment, error) {
	p, err := s.repo.GetParcelByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	// Проверяем ДО списания: условный UPDATE в RecordPayment ловит
	// гонку, но срабатывает уже после того, как деньги ушли.
	if p.PaymentStatus != models.PaymentStatusUnpaid {
		return nil, errors.Wrapf(ErrAlreadyPaid, "parcel %d", p.ID)
	}

	res, err := s.charger.Charge(ctx, payments.ChargeRequest{
		ParcelID: p.ID,
		Email:    payerEmail,
		Amount:   p.Cost,
		Currency: s.cfg.Currency,
		Method:   method,
	})
	if err != nil {
		return nil, errors.Wrap(err, "charge")
	}
	if !res.Succeeded {
		return nil, errors.Wrap(ErrPaymentDeclined, res.FailureReason)
	}

	now := s.now()
	pay, err := s.repo.RecordPayment(ctx, &models.Payment{
		ParcelID:      p.ID,
		Email:         payerEmail,
		Amount:        p.Cost,
		TransactionID: res.TransactionID,
		PaidAt:        now,
	})
	if err != nil {
		return nil, err
	}

	s.publishTracking(ctx, p.TrackingID, models.TrackingEventPaymentReceived,
		fmt.Sprintf("Paid %.2f via %s", pay.Amount, method), payerEmail, now)
	return pay, nil
}

func (s *Service) ListPayments(ctx context.Context, email string) ([]*models.Payment, error) {
	return s.repo.ListPaymentsByEmail(ctx, email)
}

// AssignRider назначает активного свободного райдера на оплаченную
// несобранную посылку.
func (s *Service) AssignRider(ctx context.Context, parcelID, riderID uint64, actor string) error {
	rider, err := s.repo.GetRiderByID(ctx, riderID)
	if err != nil {
		return err
	}
	if rider.Status != models.RiderStatusActive || rider.WorkStatus != models.RiderWorkAvailable {
		return errors.Wrapf(ErrRiderUnavailable, "rider %d", riderID)
	}

	p, err := s.repo.GetParcelByID(ctx, parcelID)
	if err != nil {
		return err
	}
	if err := s.repo.AssignRider(ctx, parcelID, rider); err != nil {
		return err
	}

	s.publishTracking(ctx, p.TrackingID, models.TrackingEventRiderAssigned,
		fmt.Sprintf("Assigned to %s", rider.Name), actor, s.now())
	return nil
}

// UpdateDeliveryStatus — переходы райдера: rider_assigned -> in_transit
// (pickup) и in_transit -> delivered. Остальное запрещено.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, parcelID uint64, newStatus, riderEmail string) error {
	p, err := s.repo.GetParcelByID(ctx, parcelID)
	if err != nil {
		return err
	}
	if p.AssignedRiderEmail != riderEmail {
		return errors.Wrapf(ErrNotParcelRider, "parcel %d", parcelID)
	}

	now := s.now()
	switch newStatus {
	case models.DeliveryStatusInTransit:
		if err := s.repo.MarkInTransit(ctx, parcelID, now); err != nil {
			return err
		}
		s.publishTracking(ctx, p.TrackingID, models.TrackingEventInTransit,
			fmt.Sprintf("Picked up by %s", riderEmail), riderEmail, now)
	case models.DeliveryStatusDelivered:
		if err := s.repo.MarkDelivered(ctx, parcelID, now); err != nil {
			return err
		}
		s.publishTracking(ctx, p.TrackingID, models.TrackingEventDelivered,
			fmt.Sprintf("Delivered by %s", riderEmail), riderEmail, now)
	default:
		return errors.Wrapf(ErrBadTransition, "to %q", newStatus)
	}
	return nil
}

// Cashout одноразово переводит заработок доставленной посылки из
// pending в cashed_out. Обратного пути нет.
func (s *Service) Cashout(ctx context.Context, parcelID uint64, riderEmail string) error {
	p, err := s.repo.GetParcelByID(ctx, parcelID)
	if err != nil {
		return err
	}
	if p.AssignedRiderEmail != riderEmail {
		return errors.Wrapf(ErrNotParcelRider, "parcel %d", parcelID)
	}
	return s.repo.CashoutParcel(ctx, parcelID, s.now())
}

// Delivery — посылка глазами райдера: заработок производный, считается
// на каждое чтение и нигде не хранится.
type Delivery struct {
	*models.Parcel
	Earning float64 `json:"earning"`
}

func (s *Service) RiderParcels(ctx context.Context, riderEmail string) ([]*models.Parcel, error) {
	if riderEmail == "" {
		return nil, errors.New("rider email is required")
	}
	return s.repo.ListRiderParcels(ctx, riderEmail, false)
}

func (s *Service) RiderCompletedParcels(ctx context.Context, riderEmail string) ([]Delivery, error) {
	if riderEmail == "" {
		return nil, errors.New("rider email is required")
	}
	ps, err := s.repo.ListRiderParcels(ctx, riderEmail, true)
	if err != nil {
		return nil, err
	}

	out := make([]Delivery, 0, len(ps))
	for _, p := range ps {
		e, err := earnings.ForDelivery(p, s.cfg.SplitRates)
		if err != nil {
			return nil, err
		}
		out = append(out, Delivery{Parcel: p, Earning: e})
	}
	return out, nil
}

func (s *Service) RiderEarnings(ctx context.Context, riderEmail string) (earnings.Summary, error) {
	if riderEmail == "" {
		return earnings.Summary{}, errors.New("rider email is required")
	}
	ps, err := s.repo.ListRiderParcels(ctx, riderEmail, true)
	if err != nil {
		return earnings.Summary{}, err
	}
	// один снимок "now" на весь проход
	return earnings.Summarize(ps, s.now(), s.cfg.SplitRates)
}

// TrackingTimeline отдаёт ленту событий по tracking id. Кэш best-effort:
// промах или ошибка redis — просто идём в БД.
func (s *Service) TrackingTimeline(ctx context.Context, trackingID string) ([]*models.TrackingEvent, error) {
	if trackingID == "" {
		return nil, errors.New("trackingId is required")
	}

	key := timelineKey(trackingID)
	if s.cache != nil && s.cfg.TimelineTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var evs []*models.TrackingEvent
			if json.Unmarshal(b, &evs) == nil {
				return evs, nil
			}
		}
	}

	evs, err := s.repo.ListTrackingEvents(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cfg.TimelineTTL > 0 {
		if b, err := json.Marshal(evs); err == nil {
			_ = s.cache.Set(ctx, key, b, s.cfg.TimelineTTL)
		}
	}
	return evs, nil
}

// ApplyTrackingMessage — обработчик kafka-консьюмера: дописывает
// событие в ленту и сбрасывает её кэш.
func (s *Service) ApplyTrackingMessage(ctx context.Context, msg messages.ParcelTracked) error {
	if msg.TrackingID == "" {
		return errors.New("tracking_id is required")
	}
	if msg.Status == "" {
		return errors.New("status is required")
	}
	if msg.EventTime.IsZero() {
		msg.EventTime = s.now()
	}

	err := s.repo.AppendTrackingEvent(ctx, &models.TrackingEvent{
		TrackingID: msg.TrackingID,
		Status:     msg.Status,
		Details:    msg.Details,
		UpdatedBy:  msg.UpdatedBy,
		EventTime:  msg.EventTime,
	})
	if err != nil {
		return err
	}

	if s.cache != nil && s.cfg.TimelineTTL > 0 {
		_ = s.cache.Del(ctx, timelineKey(msg.TrackingID))
	}
	return nil
}

// publishTracking best-effort: переход статуса уже зафиксирован в БД,
// падение брокера не должно ронять операцию.
func (s *Service) publishTracking(ctx context.Context, trackingID, status, details, updatedBy string, at time.Time) {
	if s.producer == nil || s.cfg.TrackingTopic == "" {
		return
	}
	b, err := json.Marshal(messages.ParcelTracked{
		TrackingID: trackingID,
		Status:     status,
		Details:    details,
		UpdatedBy:  updatedBy,
		EventTime:  at,
	})
	if err != nil {
		return
	}
	if err := s.producer.Publish(ctx, s.cfg.TrackingTopic, []byte(trackingID), b); err != nil {
		slog.Warn("publish tracking event failed", "tracking_id", trackingID, "status", status, "err", err)
	}
}

func timelineKey(trackingID string) string {
	return fmt.Sprintf("timeline:%s", trackingID)
}

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateTrackingID(now time.Time) string {
	buf := make([]byte, 5)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = trackingAlphabet[int(b)%len(trackingAlphabet)]
	}
	return fmt.Sprintf("PCL-%s-%s", now.Format("20060102"), string(buf))
}
