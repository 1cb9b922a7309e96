package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/config"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/display"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/handlers"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/middleware"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Dependencies is everything the routes are built from.
type Dependencies struct {
	AuthService      *services.AuthService
	SettingsService  *services.SettingsService
	AssetService     *services.AssetService
	WeatherService   *services.WeatherService
	EventRepo        repository.EventRepository
	PhotoRepo        repository.PhotoRepository
	AnnouncementRepo repository.AnnouncementRepository
	MenuItemRepo     repository.MenuItemRepository
	DisplayOptions   display.Options
}

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(cfg config.Config, deps Dependencies) *Server {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	adminHandler := handlers.NewAdminHandler(deps.SettingsService, deps.EventRepo, deps.PhotoRepo, deps.AnnouncementRepo, deps.MenuItemRepo)
	settingsHandler := handlers.NewSettingsHandler(deps.SettingsService, deps.AssetService)
	eventHandler := handlers.NewEventHandler(deps.EventRepo)
	photoHandler := handlers.NewPhotoHandler(deps.PhotoRepo, deps.AssetService)
	announcementHandler := handlers.NewAnnouncementHandler(deps.AnnouncementRepo)
	menuItemHandler := handlers.NewMenuItemHandler(deps.MenuItemRepo)
	icalHandler := handlers.NewICalHandler(deps.EventRepo, deps.SettingsService, deps.DisplayOptions.Location, cfg.ICalToken)
	displayHandler := handlers.NewDisplayHandler(deps.SettingsService, display.Sources{
		Settings:      deps.SettingsService,
		Events:        deps.EventRepo,
		Photos:        deps.PhotoRepo,
		Announcements: deps.AnnouncementRepo,
		MenuItems:     deps.MenuItemRepo,
		Weather:       deps.WeatherService,
	}, deps.DisplayOptions)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/display", http.StatusFound)
	})

	router.Get("/display", displayHandler.Page)
	router.Get("/display/ws", displayHandler.Socket)
	router.Get("/calendar.ics", icalHandler.Feed)

	router.Get("/login", authHandler.LoginPage)
	router.Post("/login", authHandler.Login)
	router.Get("/auth/oidc", authHandler.OIDCLogin)
	router.Get("/auth/callback", authHandler.Callback)
	router.Get("/logout", authHandler.Logout)
	router.Post("/api/auth/token", authHandler.Token)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.AuthService))

		r.Get("/admin", adminHandler.Console)
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAPIAuth(deps.AuthService))

		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Save)
		r.Patch("/settings/fields", settingsHandler.SetField)
		r.Post("/settings/logo", settingsHandler.UploadLogo)
		r.Delete("/settings/logo", settingsHandler.RemoveLogo)
		r.Get("/weather/cities", settingsHandler.Cities)

		r.Get("/events", eventHandler.List)
		r.Post("/events", eventHandler.Create)
		r.Patch("/events/{id}", eventHandler.Update)
		r.Delete("/events/{id}", eventHandler.Delete)

		r.Get("/photos", photoHandler.List)
		r.Post("/photos", photoHandler.Create)
		r.Post("/photos/reorder", photoHandler.Reorder)
		r.Patch("/photos/{id}", photoHandler.Update)
		r.Delete("/photos/{id}", photoHandler.Delete)

		r.Get("/announcements", announcementHandler.List)
		r.Post("/announcements", announcementHandler.Create)
		r.Patch("/announcements/{id}", announcementHandler.Update)
		r.Delete("/announcements/{id}", announcementHandler.Delete)
		r.Post("/announcements/{id}/active", announcementHandler.SetActive)

		r.Get("/menu-items", menuItemHandler.List)
		r.Post("/menu-items", menuItemHandler.Create)
		r.Patch("/menu-items/{id}", menuItemHandler.Update)
		r.Delete("/menu-items/{id}", menuItemHandler.Delete)
		r.Post("/menu-items/{id}/availability", menuItemHandler.SetAvailability)
	})

	server := &Server{
		router: router,
		config: cfg,
	}

	return server
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves until ctx is cancelled, then drains open requests.
func (server *Server) Start(ctx context.Context) error {
	address := ":" + server.config.Port
	httpServer := &http.Server{
		Addr:              address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", address)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
