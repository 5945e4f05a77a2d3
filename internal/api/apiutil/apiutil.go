// Package apiutil держит общие хелперы JSON-ответов для всех
// HTTP-хендлеров.
package apiutil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteJSON(w, r, status, map[string]string{"error": msg})
}

// Internal логирует причину и отдаёт наружу безликий 500: детали
// ошибок хранилища клиенту не показываем.
func Internal(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	WriteError(w, r, http.StatusInternalServerError, "internal server error")
}

func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
