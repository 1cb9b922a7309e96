package handlers

import (
	"log/slog"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/go-chi/chi/v5"
)

type MenuItemHandler struct {
	menuItemRepo repository.MenuItemRepository
}

func NewMenuItemHandler(menuItemRepo repository.MenuItemRepository) *MenuItemHandler {
	return &MenuItemHandler{menuItemRepo: menuItemRepo}
}

func (handler *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := handler.menuItemRepo.ListAll(r.Context())
	if err != nil {
		slog.Error("listing menu items", "error", err)
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (handler *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.MenuItem
	if !decodeJSON(w, r, &item) {
		return
	}

	id, err := handler.menuItemRepo.Add(r.Context(), item)
	if err != nil {
		writeError(w, "adding menu item", err)
		return
	}
	writeSuccess(w, http.StatusCreated, id)
}

func (handler *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.MenuItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.menuItemRepo.Update(r.Context(), id, patch); err != nil {
		writeError(w, "updating menu item", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *MenuItemHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Available *bool `json:"available"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Available == nil {
		writeFailure(w, http.StatusBadRequest, "available alanı gerekli")
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.menuItemRepo.SetAvailable(r.Context(), id, *body.Available); err != nil {
		writeError(w, "toggling menu item", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *MenuItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.menuItemRepo.Remove(r.Context(), id); err != nil {
		writeError(w, "removing menu item", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}
