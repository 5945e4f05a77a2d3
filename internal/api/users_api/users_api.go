package users_api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/zapshift/zapshift/internal/api/apiutil"
	"github.com/zapshift/zapshift/internal/auth"
	"github.com/zapshift/zapshift/internal/models"
	"github.com/zapshift/zapshift/internal/services/users"
	"github.com/zapshift/zapshift/internal/storage/pgparcel"
)

type UsersAPI struct {
	svc *users.Service
}

func New(svc *users.Service) *UsersAPI {
	return &UsersAPI{svc: svc}
}

func (a *UsersAPI) Register(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/login", a.login)
		r.Get("/me", a.me)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/search", a.search)
			r.Patch("/{id}/role", a.setRole)
		})
	})
}

// login фиксирует вход: первый раз создаёт пользователя, дальше только
// двигает last_logged_in.
func (a *UsersAPI) login(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	u, err := a.svc.RecordLogin(r.Context(), id.Email, id.Name)
	if err != nil {
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, u)
}

func (a *UsersAPI) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	u, err := a.svc.GetByEmail(r.Context(), id.Email)
	if err != nil {
		if errors.Is(err, pgparcel.ErrNotFound) {
			apiutil.WriteError(w, r, http.StatusNotFound, "user not found")
			return
		}
		apiutil.Internal(w, r, err)
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, u)
}

func (a *UsersAPI) search(w http.ResponseWriter, r *http.Request) {
	us, err := a.svc.Search(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	apiutil.WriteJSON(w, r, http.StatusOK, us)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (a *UsersAPI) setRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || userID == 0 {
		apiutil.WriteError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req roleRequest
	if !apiutil.Decode(w, r, &req) {
		return
	}

	u, err := a.svc.SetRole(r.Context(), userID, req.Role)
	switch {
	case err == nil:
		apiutil.WriteJSON(w, r, http.StatusOK, u)
	case errors.Is(err, users.ErrBadRole):
		apiutil.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, pgparcel.ErrNotFound):
		apiutil.WriteError(w, r, http.StatusNotFound, "user not found")
	default:
		apiutil.Internal(w, r, err)
	}
}
