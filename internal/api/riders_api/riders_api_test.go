package riders_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/models"
	"github.com/zapshift/zapshift/internal/services/parcels"
	"github.com/zapshift/zapshift/internal/services/riders"
	"github.com/zapshift/zapshift/internal/storage/pgparcel"
)

type fakeRidersRepo struct {
	createdIn models.RiderApplyInput
	createErr error

	statusOut *models.Rider
	roleEmail string
	roleSet   string
}

func (f *fakeRidersRepo) CreateRider(ctx context.Context, in models.RiderApplyInput) (*models.Rider, error) {
	f.createdIn = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Rider{ID: 1, Email: in.Email, Status: models.RiderStatusPending}, nil
}
func (f *fakeRidersRepo) GetRiderByID(ctx context.Context, id uint64) (*models.Rider, error) {
	return &models.Rider{ID: id}, nil
}
func (f *fakeRidersRepo) GetRiderByEmail(ctx context.Context, email string) (*models.Rider, error) {
	return &models.Rider{ID: 1, Email: email}, nil
}
func (f *fakeRidersRepo) ListRidersByStatus(ctx context.Context, status string) ([]*models.Rider, error) {
	return []*models.Rider{{ID: 1, Status: status}}, nil
}
func (f *fakeRidersRepo) ListAvailableRiders(ctx context.Context, district string) ([]*models.Rider, error) {
	return []*models.Rider{{ID: 2, District: district}}, nil
}
func (f *fakeRidersRepo) UpdateRiderStatus(ctx context.Context, id uint64, status string) (*models.Rider, error) {
	if f.statusOut == nil {
		return nil, pgparcel.ErrNotFound
	}
	f.statusOut.Status = status
	return f.statusOut, nil
}
func (f *fakeRidersRepo) UpdateUserRoleByEmail(ctx context.Context, email, role string) error {
	f.roleEmail, f.roleSet = email, role
	return nil
}

type fakeParcelsRepo struct {
	riderParcels []*models.Parcel
}

func (f *fakeParcelsRepo) CreateParcel(ctx context.Context, p *models.Parcel) (*models.Parcel, error) {
	return p, nil
}
func (f *fakeParcelsRepo) GetParcelByID(ctx context.Context, id uint64) (*models.Parcel, error) {
	return nil, pgparcel.ErrNotFound
}
func (f *fakeParcelsRepo) ListParcels(ctx context.Context, filter models.ParcelFilter) ([]*models.Parcel, error) {
	return nil, nil
}
func (f *fakeParcelsRepo) ListRiderParcels(ctx context.Context, riderEmail string, delivered bool) ([]*models.Parcel, error) {
	return f.riderParcels, nil
}
func (f *fakeParcelsRepo) DeleteParcel(ctx context.Context, id uint64) error { return nil }
func (f *fakeParcelsRepo) CancelParcel(ctx context.Context, id uint64) error { return nil }
func (f *fakeParcelsRepo) AssignRider(ctx context.Context, parcelID uint64, rider *models.Rider) error {
	return nil
}
func (f *fakeParcelsRepo) MarkInTransit(ctx context.Context, parcelID uint64, at time.Time) error {
	return nil
}
func (f *fakeParcelsRepo) MarkDelivered(ctx context.Context, parcelID uint64, at time.Time) error {
	return nil
}
func (f *fakeParcelsRepo) CashoutParcel(ctx context.Context, parcelID uint64, at time.Time) error {
	return nil
}
func (f *fakeParcelsRepo) GetRiderByID(ctx context.Context, id uint64) (*models.Rider, error) {
	return nil, pgparcel.ErrNotFound
}
func (f *fakeParcelsRepo) RecordPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	return p, nil
}
func (f *fakeParcelsRepo) ListPaymentsByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	return nil, nil
}
func (f *fakeParcelsRepo) AppendTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error {
	return nil
}
func (f *fakeParcelsRepo) ListTrackingEvents(ctx context.Context, trackingID string) ([]*models.TrackingEvent, error) {
	return nil, nil
}

const (
	userToken  = "user-token"
	adminToken = "admin-token"
	riderToken = "rider-token"
)

func newTestServer(t *testing.T, rRepo *fakeRidersRepo, pRepo *fakeParcelsRepo) *httptest.Server {
	t.Helper()

	api := New(riders.New(rRepo), parcels.New(pRepo, nil, nil, nil, nil, parcels.Config{}))

	verifier := auth.NewStaticVerifier(map[string]auth.Identity{
		userToken:  {Email: "user@mail.com", Role: models.RoleUser},
		adminToken: {Email: "admin@mail.com", Role: models.RoleAdmin},
		riderToken: {Email: "rider@mail.com", Role: models.RoleRider},
	})

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, nil))
		api.Register(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestApply_emailForcedFromToken(t *testing.T) {
	repo := &fakeRidersRepo{}
	srv := newTestServer(t, repo, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodPost, srv.URL+"/riders", userToken, models.RiderApplyInput{
		Name: "Kamal", Email: "spoofed@mail.com", Age: 25,
		Region: "Dhaka", District: "Dhaka",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, "user@mail.com", repo.createdIn.Email)
}

func TestApply_duplicateConflict(t *testing.T) {
	repo := &fakeRidersRepo{createErr: pgparcel.ErrConflict}
	srv := newTestServer(t, repo, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodPost, srv.URL+"/riders", userToken, models.RiderApplyInput{
		Name: "Kamal", Age: 25, Region: "Dhaka", District: "Dhaka",
	})
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestListPending_adminOnly(t *testing.T) {
	srv := newTestServer(t, &fakeRidersRepo{}, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodGet, srv.URL+"/riders/pending", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = doJSON(t, http.MethodGet, srv.URL+"/riders/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var rs []*models.Rider
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rs))
	require.Len(t, rs, 1)
	require.Equal(t, models.RiderStatusPending, rs[0].Status)
}

func TestSetStatus_approvePromotesRole(t *testing.T) {
	repo := &fakeRidersRepo{statusOut: &models.Rider{ID: 3, Email: "kamal@mail.com"}}
	srv := newTestServer(t, repo, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodPatch, srv.URL+"/riders/3/status", adminToken,
		map[string]string{"status": models.RiderStatusActive})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, models.RoleRider, repo.roleSet)
	require.Equal(t, "kamal@mail.com", repo.roleEmail)
}

func TestSetStatus_badStatus(t *testing.T) {
	srv := newTestServer(t, &fakeRidersRepo{}, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodPatch, srv.URL+"/riders/3/status", adminToken,
		map[string]string{"status": "fired"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSetStatus_notFound(t *testing.T) {
	srv := newTestServer(t, &fakeRidersRepo{}, &fakeParcelsRepo{})

	res := doJSON(t, http.MethodPatch, srv.URL+"/riders/99/status", adminToken,
		map[string]string{"status": models.RiderStatusActive})
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMyEarnings_riderOnly(t *testing.T) {
	at := time.Now().UTC()
	pRepo := &fakeParcelsRepo{riderParcels: []*models.Parcel{
		{ID: 1, Cost: 200, SenderCenter: "D", ReceiverCenter: "D", DeliveredAt: &at},
		{ID: 2, Cost: 100, SenderCenter: "D", ReceiverCenter: "S", DeliveredAt: &at, CashoutStatus: models.CashoutStatusCashedOut},
	}}
	srv := newTestServer(t, &fakeRidersRepo{}, pRepo)

	res := doJSON(t, http.MethodGet, srv.URL+"/riders/earnings", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res = doJSON(t, http.MethodGet, srv.URL+"/riders/earnings", riderToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var sum struct {
		Total          float64 `json:"total"`
		TotalCashedOut float64 `json:"totalCashedOut"`
		TotalPending   float64 `json:"totalPending"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sum))
	require.Equal(t, 190.0, sum.Total) // 200*0.8 + 100*0.3
	require.Equal(t, 30.0, sum.TotalCashedOut)
	require.Equal(t, 160.0, sum.TotalPending)
}

func TestMyCompletedParcels_earningAttached(t *testing.T) {
	at := time.Now().UTC()
	pRepo := &fakeParcelsRepo{riderParcels: []*models.Parcel{
		{ID: 1, Cost: 200, SenderCenter: "D", ReceiverCenter: "D", DeliveredAt: &at},
	}}
	srv := newTestServer(t, &fakeRidersRepo{}, pRepo)

	res := doJSON(t, http.MethodGet, srv.URL+"/riders/completed-parcels", riderToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var ds []struct {
		ID      uint64  `json:"id"`
		Earning float64 `json:"earning"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&ds))
	require.Len(t, ds, 1)
	require.Equal(t, 160.0, ds[0].Earning)
}
