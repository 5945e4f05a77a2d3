package parcels_api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/api/apiutil"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/models"
	"github.com/zapshift/zapshift/internal/pricing"
	"github.com/zapshift/zapshift/internal/services/parcels"
	"github.com/zapshift/zapshift/internal/storage/pgparcel"
)

type ParcelsAPI struct {
	svc *parcels.Service
}

func New(svc *parcels.Service) *ParcelsAPI {
	return &ParcelsAPI{svc: svc}
}

// Register вешает маршруты на уже аутентифицированный роутер; квоты и
// публичный трекинг регистрируются отдельно через RegisterPublic.
func (a *ParcelsAPI) Register(r chi.Router) {
	r.Route("/parcels", func(r chi.Router) {
		r.Post("/", a.createParcel)
		r.Get("/", a.listParcels)
		r.Get("/{id}", a.getParcel)
		r.Delete("/{id}", a.deleteParcel)
		r.Post("/{id}/cancel", a.cancelParcel)
		r.With(auth.RequireRole(models.RoleAdmin)).Post("/{id}/assign", a.assignRider)
		r.With(auth.RequireRole(models.RoleRider)).Patch("/{id}/status", a.updateStatus)
		r.With(auth.RequireRole(models.RoleRider)).Post("/{id}/cashout", a.cashout)
	})
	r.Route("/payments", func(r chi.Router) {
		r.Post("/", a.pay)
		r.Get("/", a.listPayments)
	})
}

func (a *ParcelsAPI) RegisterPublic(r chi.Router) {
	r.Post("/quotes", a.quote)
	r.Get("/trackings/{trackingID}", a.timeline)
}

type quoteRequest struct {
	Type           string  `json:"type"`
	Weight         float64 `json:"weight"`
	SenderCenter   string  `json:"sender_center"`
	ReceiverCenter string  `json:"receiver_center"`
}

// quote — живой превью цены для формы бронирования, без записи.
func (a *ParcelsAPI) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}

	q, err := a.svc.Quote(req.Type, req.Weight, req.SenderCenter, req.ReceiverCenter)
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, q)
}

func (a *ParcelsAPI) createParcel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var in models.ParcelCreateInput
	if !apiutil.Decode(w, r, &in) {
		return
	}

	p, err := a.svc.CreateParcel(r.Context(), id.Email, in)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownType) || errors.Is(err, pricing.ErrInvalidWeight) {
			apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.writeErr(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, p)
}

// listParcels: админ видит всё и может фильтровать, обычный
// пользователь — только свои посылки.
func (a *ParcelsAPI) listParcels(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	f := models.ParcelFilter{
		PaymentStatus:  r.URL.Query().Get("payment_status"),
		DeliveryStatus: r.URL.Query().Get("delivery_status"),
	}
	if id.Role == models.RoleAdmin {
		f.CreatedBy = r.URL.Query().Get("created_by")
	} else {
		f.CreatedBy = id.Email
	}

	ps, err := a.svc.ListParcels(r.Context(), f)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, ps)
}

func (a *ParcelsAPI) getParcel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	p, err := a.svc.GetParcel(r.Context(), parcelID)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	if !canSeeParcel(id, p) {
		apiutil.WriteError(w, r, http.StatusForbidden, "not your parcel")
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, p)
}

func (a *ParcelsAPI) deleteParcel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	if !a.requireOwnerOrAdmin(w, r, id, parcelID) {
		return
	}
	if err := a.svc.DeleteParcel(r.Context(), parcelID); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *ParcelsAPI) cancelParcel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	if !a.requireOwnerOrAdmin(w, r, id, parcelID) {
		return
	}
	if err := a.svc.CancelParcel(r.Context(), parcelID, id.Email); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	RiderID uint64 `json:"rider_id"`
}

func (a *ParcelsAPI) assignRider(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}
	if err := a.svc.AssignRider(r.Context(), parcelID, req.RiderID, id.Email); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	DeliveryStatus string `json:"delivery_status"`
}

func (a *ParcelsAPI) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}
	if err := a.svc.UpdateDeliveryStatus(r.Context(), parcelID, req.DeliveryStatus, id.Email); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *ParcelsAPI) cashout(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	parcelID, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.svc.Cashout(r.Context(), parcelID, id.Email); err != nil {
		a.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payRequest struct {
	ParcelID uint64 `json:"parcel_id"`
	Method   string `json:"method"`
}

func (a *ParcelsAPI) pay(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var req payRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}
	if req.ParcelID == 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "parcel_id is required")
		return
	}
	if !a.requireOwnerOrAdmin(w, r, id, req.ParcelID) {
		return
	}

	pay, err := a.svc.Pay(r.Context(), req.ParcelID, id.Email, req.Method)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, pay)
}

func (a *ParcelsAPI) listPayments(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	email := id.Email
	if id.Role == models.RoleAdmin {
		if q := r.URL.Query().Get("email"); q != "" {
			email = q
		}
	}

	ps, err := a.svc.ListPayments(r.Context(), email)
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, ps)
}

// timeline публичный: tracking id сам по себе секрет-ссылка.
func (a *ParcelsAPI) timeline(w http.ResponseWriter, r *http.Request) {
	evs, err := a.svc.TrackingTimeline(r.Context(), chi.URLParam(r, "trackingID"))
	if err != nil {
		a.writeErr(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, evs)
}

func (a *ParcelsAPI) requireOwnerOrAdmin(w http.ResponseWriter, r *http.Request, id auth.Identity, parcelID uint64) bool {
	p, err := a.svc.GetParcel(r.Context(), parcelID)
	if err != nil {
		a.writeErr(w, r, err)
		return false
	}
	if id.Role != models.RoleAdmin && p.CreatedBy != id.Email {
		apiutil.WriteError(w, r, http.StatusForbidden, "not your parcel")
		return false
	}
	return true
}

func canSeeParcel(id auth.Identity, p *models.Parcel) bool {
	if id.Role == models.RoleAdmin {
		return true
	}
	return p.CreatedBy == id.Email || p.AssignedRiderEmail == id.Email
}

func (a *ParcelsAPI) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pgparcel.ErrNotFound):
		apiutil.WriteError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, pgparcel.ErrConflict),
		errors.Is(err, parcels.ErrAlreadyPaid),
		errors.Is(err, parcels.ErrRiderUnavailable),
		errors.Is(err, parcels.ErrBadTransition):
		apiutil.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, parcels.ErrNotParcelRider):
		apiutil.WriteError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, parcels.ErrPaymentDeclined):
		apiutil.WriteError(w, r, http.StatusPaymentRequired, err.Error())
	default:
		apiutil.Internal(w, r, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
