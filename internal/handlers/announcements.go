package handlers

import (
	"log/slog"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/go-chi/chi/v5"
)

type AnnouncementHandler struct {
	announcementRepo repository.AnnouncementRepository
}

func NewAnnouncementHandler(announcementRepo repository.AnnouncementRepository) *AnnouncementHandler {
	return &AnnouncementHandler{announcementRepo: announcementRepo}
}

func (handler *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	list := handler.announcementRepo.ListAll
	if r.URL.Query().Get("scope") == "active" {
		list = handler.announcementRepo.ListActive
	}

	announcements, err := list(r.Context())
	if err != nil {
		slog.Error("listing announcements", "error", err)
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}
	writeJSON(w, http.StatusOK, announcements)
}

func (handler *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var announcement models.Announcement
	if !decodeJSON(w, r, &announcement) {
		return
	}

	id, err := handler.announcementRepo.Add(r.Context(), announcement)
	if err != nil {
		writeError(w, "adding announcement", err)
		return
	}
	writeSuccess(w, http.StatusCreated, id)
}

func (handler *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.AnnouncementPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.announcementRepo.Update(r.Context(), id, patch); err != nil {
		writeError(w, "updating announcement", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *AnnouncementHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active *bool `json:"active"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Active == nil {
		writeFailure(w, http.StatusBadRequest, "active alanı gerekli")
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.announcementRepo.SetActive(r.Context(), id, *body.Active); err != nil {
		writeError(w, "toggling announcement", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.announcementRepo.Remove(r.Context(), id); err != nil {
		writeError(w, "removing announcement", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}
