package handlers

import (
	"log/slog"
	"net/http"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/middleware"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/pages"
	"golang.org/x/sync/errgroup"
)

type AdminHandler struct {
	settingsService  *services.SettingsService
	eventRepo        repository.EventRepository
	photoRepo        repository.PhotoRepository
	announcementRepo repository.AnnouncementRepository
	menuItemRepo     repository.MenuItemRepository
}

func NewAdminHandler(
	settingsService *services.SettingsService,
	eventRepo repository.EventRepository,
	photoRepo repository.PhotoRepository,
	announcementRepo repository.AnnouncementRepository,
	menuItemRepo repository.MenuItemRepository,
) *AdminHandler {
	return &AdminHandler{
		settingsService:  settingsService,
		eventRepo:        eventRepo,
		photoRepo:        photoRepo,
		announcementRepo: announcementRepo,
		menuItemRepo:     menuItemRepo,
	}
}

// Console loads settings and every list side by side. A failed read is
// logged and leaves its section empty.
func (handler *AdminHandler) Console(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	props := pages.AdminProps{
		User:   middleware.GetUser(ctx),
		Cities: cityNames(),
	}

	var group errgroup.Group
	group.Go(func() error {
		settings, err := handler.settingsService.Fetch(ctx)
		props.Settings = settings
		return err
	})
	group.Go(func() (err error) {
		props.Events, err = handler.eventRepo.ListAll(ctx)
		return err
	})
	group.Go(func() (err error) {
		props.Photos, err = handler.photoRepo.ListAll(ctx)
		return err
	})
	group.Go(func() (err error) {
		props.Announcements, err = handler.announcementRepo.ListAll(ctx)
		return err
	})
	group.Go(func() (err error) {
		props.MenuItems, err = handler.menuItemRepo.ListAll(ctx)
		return err
	})
	if err := group.Wait(); err != nil {
		slog.Error("loading admin console", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := pages.Admin(props)
	if err := component.Render(ctx, w); err != nil {
		slog.Error("rendering admin console", "error", err)
	}
}
