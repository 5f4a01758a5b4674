package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DCode-v05/Lumina-Digital-Companio/internal/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail renders the error envelope clients read the message from.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrUnauthorized):
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, errs.ErrRateLimited):
		writeDetail(w, http.StatusTooManyRequests, "too many attempts, try again later")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeDetail(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, errs.ErrInsufficientBalance):
		writeDetail(w, http.StatusBadRequest, "insufficient balance")
	case strings.HasPrefix(err.Error(), "validation:"):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, "internal")
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
