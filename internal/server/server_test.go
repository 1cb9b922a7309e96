package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/config"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/display"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{Port: "0", SessionSecret: "server-test-secret-0123456789abcdef", ICalToken: "feed"}
	store := testutil.NewTestStore(t)
	authService, err := services.NewAuthService(context.Background(), cfg, repository.NewUserRepository(testutil.NewTestDatabase(t)), nil)
	if err != nil {
		t.Fatalf("creating auth service: %v", err)
	}
	settingsService := services.NewSettingsService(repository.NewSettingsRepository(store))
	photoRepo := repository.NewPhotoRepository(store, nil)

	return New(cfg, Dependencies{
		AuthService:      authService,
		SettingsService:  settingsService,
		AssetService:     services.NewAssetService(nil, settingsService, photoRepo),
		WeatherService:   services.NewWeatherService("http://127.0.0.1:0"),
		EventRepo:        repository.NewEventRepository(store, time.UTC, nil),
		PhotoRepo:        photoRepo,
		AnnouncementRepo: repository.NewAnnouncementRepository(store, nil),
		MenuItemRepo:     repository.NewMenuItemRepository(store, nil),
		DisplayOptions:   display.Options{Location: time.UTC},
	}).Handler()
}

func TestServer_Routes(t *testing.T) {
	handler := setupServer(t)

	cases := []struct {
		method   string
		target   string
		status   int
		location string
		contains string
	}{
		{http.MethodGet, "/health", http.StatusOK, "", "ok"},
		{http.MethodGet, "/", http.StatusFound, "/display", ""},
		{http.MethodGet, "/display", http.StatusOK, "", "data-region"},
		{http.MethodGet, "/login", http.StatusOK, "", `action="/login"`},
		{http.MethodGet, "/admin", http.StatusFound, "/login", ""},
		{http.MethodGet, "/api/settings", http.StatusUnauthorized, "", "Oturum açmanız gerekiyor"},
		{http.MethodPost, "/api/events", http.StatusUnauthorized, "", `"success":false`},
		{http.MethodGet, "/calendar.ics?token=feed", http.StatusOK, "", "BEGIN:VCALENDAR"},
		{http.MethodGet, "/calendar.ics", http.StatusUnauthorized, "", ""},
	}
	for _, tc := range cases {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(tc.method, tc.target, nil))
		if recorder.Code != tc.status {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.target, tc.status, recorder.Code)
		}
		if tc.location != "" && recorder.Header().Get("Location") != tc.location {
			t.Errorf("%s %s: expected redirect to %s, got %q", tc.method, tc.target, tc.location, recorder.Header().Get("Location"))
		}
		if tc.contains != "" && !strings.Contains(recorder.Body.String(), tc.contains) {
			t.Errorf("%s %s: expected body to contain %q", tc.method, tc.target, tc.contains)
		}
	}
}
