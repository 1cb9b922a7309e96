package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/go-chi/chi/v5"
)

type PhotoHandler struct {
	photoRepo    repository.PhotoRepository
	assetService *services.AssetService
}

func NewPhotoHandler(photoRepo repository.PhotoRepository, assetService *services.AssetService) *PhotoHandler {
	return &PhotoHandler{photoRepo: photoRepo, assetService: assetService}
}

func (handler *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := handler.photoRepo.ListAll(r.Context())
	if err != nil {
		slog.Error("listing photos", "error", err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	writeJSON(w, http.StatusOK, photos)
}

// Create accepts either a multipart upload or a JSON body naming an image
// that is already hosted elsewhere.
func (handler *PhotoHandler) Create(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		handler.upload(w, r)
		return
	}

	var photo models.Photo
	if !decodeJSON(w, r, &photo) {
		return
	}
	id, err := handler.photoRepo.Add(r.Context(), photo)
	if err != nil {
		writeError(w, "adding photo", err)
		return
	}
	writeSuccess(w, http.StatusCreated, id)
}

func (handler *PhotoHandler) upload(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer upload.Close()

	id, url, err := handler.assetService.UploadPhoto(r.Context(), upload.asset, upload.caption)
	if err != nil {
		writeError(w, "uploading photo", err)
		return
	}
	writeJSON(w, http.StatusCreated, result{Success: true, ID: id, URL: url})
}

func (handler *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.PhotoPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := handler.photoRepo.Update(r.Context(), id, patch); err != nil {
		writeError(w, "updating photo", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}

func (handler *PhotoHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := handler.photoRepo.Reorder(r.Context(), body.IDs); err != nil {
		writeError(w, "reordering photos", err)
		return
	}
	writeSuccess(w, http.StatusOK, "")
}

func (handler *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.photoRepo.Remove(r.Context(), id); err != nil {
		writeError(w, "removing photo", err)
		return
	}
	writeSuccess(w, http.StatusOK, id)
}
