package handlers

import (
	"log/slog"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/go-chi/chi/v5"
)

type EventHandler struct {
	eventRepo repository.EventRepository
}

func NewEventHandler(eventRepo repository.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

// List answers every event. ?scope=today narrows it to what the display
// shows.
func (handler *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	list := handler.eventRepo.ListAll
	if r.URL.Query().Get("scope") == "today" {
		list = handler.eventRepo.ListActive
	}

	events, err := list(r.Context())
	if err != nil {
		slog.Error("listing events", "error", err)
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (handler *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if !decodeJSON(w, r, &event) {
		return
	}

	id, err := handler.eventRepo.Add(r.Context(), event)
	if err != nil {
		writeError(w, "adding event", err)
		return
	}
	writeSuccess(w, http.StatusCreated, id)
}

func (handler *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.EventPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.eventRepo.Update(r.Context(), id, patch); err != nil {
		writeError(w, "updating event", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.eventRepo.Remove(r.Context(), id); err != nil {
		writeError(w, "removing event", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}
