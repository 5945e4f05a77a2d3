package riders_api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/api/apiutil"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/models"
	"github.com/zapshift/zapshift/internal/services/parcels"
	"github.com/zapshift/zapshift/internal/services/riders"
	"github.com/zapshift/zapshift/internal/storage/pgparcel"
)

// RidersAPI обслуживает и админскую сторону (заявки, статусы), и
// райдерскую (мои задания, заработок). Заработок считает parcels
// service, поэтому хендлеру нужны оба сервиса.
type RidersAPI struct {
	svc     *riders.Service
	parcels *parcels.Service
}

func New(svc *riders.Service, parcelsSvc *parcels.Service) *RidersAPI {
	return &RidersAPI{svc: svc, parcels: parcelsSvc}
}

func (a *RidersAPI) Register(r chi.Router) {
	r.Route("/riders", func(r chi.Router) {
		r.Post("/", a.apply)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/pending", a.listPending)
			r.Get("/active", a.listActive)
			r.Get("/available", a.listAvailable)
			r.Patch("/{id}/status", a.setStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleRider))
			r.Get("/parcels", a.myParcels)
			r.Get("/completed-parcels", a.myCompletedParcels)
			r.Get("/earnings", a.myEarnings)
		})
	})
}

func (a *RidersAPI) apply(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	var in models.RiderApplyInput
	if !apiutil.Decode(w, r, &in) {
		return
	}
	// заявка всегда от имени залогиненного пользователя
	in.Email = id.Email

	rd, err := a.svc.Apply(r.Context(), in)
	if err != nil {
		if errors.Is(err, pgparcel.ErrConflict) {
			apiutil.WriteError(w, r, http.StatusConflict, "rider application already exists")
			return
		}
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	apiutil.WriteJSON(w, r, http.StatusCreated, rd)
}

func (a *RidersAPI) listPending(w http.ResponseWriter, r *http.Request) {
	a.listByStatus(w, r, models.RiderStatusPending)
}

func (a *RidersAPI) listActive(w http.ResponseWriter, r *http.Request) {
	a.listByStatus(w, r, models.RiderStatusActive)
}

func (a *RidersAPI) listByStatus(w http.ResponseWriter, r *http.Request, status string) {
	rs, err := a.svc.ListByStatus(r.Context(), status)
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, rs)
}

func (a *RidersAPI) listAvailable(w http.ResponseWriter, r *http.Request) {
	rs, err := a.svc.ListAvailable(r.Context(), r.URL.Query().Get("district"))
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, rs)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *RidersAPI) setStatus(w http.ResponseWriter, r *http.Request) {
	riderID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || riderID == 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req statusRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}

	rd, err := a.svc.SetStatus(r.Context(), riderID, req.Status)
	switch {
	case err == nil:
		apiutil.WriteJSON(w, r, http.StatusOK, rd)
	case errors.Is(err, riders.ErrBadStatus):
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, pgparcel.ErrNotFound):
		apiutil.WriteError(w, r, http.StatusNotFound, "rider not found")
	default:
		apiutil.Internal(w, r, err)
	}
}

func (a *RidersAPI) myParcels(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	ps, err := a.parcels.RiderParcels(r.Context(), id.Email)
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, ps)
}

func (a *RidersAPI) myCompletedParcels(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	ds, err := a.parcels.RiderCompletedParcels(r.Context(), id.Email)
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, ds)
}

func (a *RidersAPI) myEarnings(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	sum, err := a.parcels.RiderEarnings(r.Context(), id.Email)
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, sum)
}
