package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

const (
	maxJSONBody   = 1 << 20
	genericFailed = "İşlem başarısız oldu. Lütfen tekrar deneyin."
)

type result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, id string) {
	writeJSON(w, status, result{Success: true, ID: id})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, result{Success: false, Error: message})
}

// writeError maps a failed mutation onto the JSON failure shape. Client
// mistakes carry their message back; anything else is logged and answered
// generically.
func writeError(w http.ResponseWriter, action string, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeFailure(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, repository.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "Kayıt bulunamadı")
	case errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, services.ErrInvalidField),
		errors.Is(err, contentstore.ErrInvalidPath):
		writeFailure(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(action, "error", err)
		writeFailure(w, http.StatusInternalServerError, genericFailed)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(target); err != nil {
		writeFailure(w, http.StatusBadRequest, fmt.Sprintf("geçersiz istek: %v", err))
		return false
	}
	return true
}
