package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
	"github.com/go-chi/chi/v5"
)

func TestAdminHandler_ConsoleRendersEveryList(t *testing.T) {
	fixture := newFixture(t)
	ctx := context.Background()
	fixture.events.Add(ctx, models.Event{Title: "Canlı Müzik", Date: "2026-10-18", Time: "20:00"})
	fixture.photos.Add(ctx, models.Photo{URL: "https://cdn.test/teras.jpg"})
	fixture.announcements.Add(ctx, models.Announcement{Text: "Pazartesi kapalıyız"})
	fixture.menuItems.Add(ctx, models.MenuItem{Name: "Filtre Kahve", Price: "55 TL"})
	fixture.settings.SetField(ctx, "cafeName", "Köşe Kahve")

	handler := NewAdminHandler(fixture.settings, fixture.events, fixture.photos, fixture.announcements, fixture.menuItems)
	fixture.router.Get("/admin", handler.Console)

	request := requestWithUser(httptest.NewRequest(http.MethodGet, "/admin", nil), models.User{Email: "admin@kafe.test"})
	recorder := fixture.serve(request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	body := recorder.Body.String()
	for _, want := range []string{"Köşe Kahve", "admin@kafe.test", "Canlı Müzik", "teras.jpg", "Pazartesi kapalıyız", "Filtre Kahve"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected console to contain %q", want)
		}
	}
}

func TestAdminHandler_ConsoleDegradesWhenStoreFails(t *testing.T) {
	store := testutil.FailingStore{}
	handler := NewAdminHandler(
		services.NewSettingsService(repository.NewSettingsRepository(store)),
		repository.NewEventRepository(store, time.UTC, nil),
		repository.NewPhotoRepository(store, nil),
		repository.NewAnnouncementRepository(store, nil),
		repository.NewMenuItemRepository(store, nil),
	)
	router := chi.NewRouter()
	router.Get("/admin", handler.Console)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := recorder.Body.String()
	if !strings.Contains(body, models.DefaultCafeName) || !strings.Contains(body, "Henüz etkinlik yok") {
		t.Errorf("expected defaults and empty lists, got %s", body)
	}
}
