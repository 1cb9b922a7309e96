package handlers

import (
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	assetService    *services.AssetService
}

func NewSettingsHandler(settingsService *services.SettingsService, assetService *services.AssetService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, assetService: assetService}
}

func (handler *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handler.settingsService.Load(r.Context()))
}

// Save replaces the whole document. Fields missing from the body keep
// their default values.
func (handler *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	settings := models.DefaultSettings()
	if !decodeJSON(w, r, &settings) {
		return
	}

	if err := handler.settingsService.Save(r.Context(), settings); err != nil {
		writeError(w, "saving settings", err)
		return
	}
	writeSuccess(w, http.StatusOK, "")
}

func (handler *SettingsHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  string `json:"path"`
		Value any    `json:"value"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := handler.settingsService.SetField(r.Context(), body.Path, body.Value); err != nil {
		writeError(w, "setting "+body.Path, err)
		return
	}
	writeSuccess(w, http.StatusOK, "")
}

func (handler *SettingsHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer upload.Close()

	url, err := handler.assetService.UploadLogo(r.Context(), upload.asset)
	if err != nil {
		writeError(w, "uploading logo", err)
		return
	}
	writeJSON(w, http.StatusOK, result{Success: true, URL: url})
}

func (handler *SettingsHandler) RemoveLogo(w http.ResponseWriter, r *http.Request) {
	if err := handler.assetService.RemoveLogo(r.Context()); err != nil {
		writeError(w, "removing logo", err)
		return
	}
	writeSuccess(w, http.StatusOK, "")
}

func (handler *SettingsHandler) Cities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cityNames())
}

func cityNames() []string {
	cities := services.Cities()
	names := make([]string, 0, len(cities))
	for _, city := range cities {
		names = append(names, city.Name)
	}
	return names
}
