package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

const eventDuration = time.Hour

type ICalHandler struct {
	eventRepo       repository.EventRepository
	settingsService *services.SettingsService
	location        *time.Location
	token           string
}

func NewICalHandler(eventRepo repository.EventRepository, settingsService *services.SettingsService, location *time.Location, token string) *ICalHandler {
	if location == nil {
		location = time.UTC
	}
	return &ICalHandler{
		eventRepo:       eventRepo,
		settingsService: settingsService,
		location:        location,
		token:           token,
	}
}

// Feed publishes every stored event. The feed is off unless a token is
// configured.
func (handler *ICalHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if handler.token == "" {
		http.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(handler.token)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	events, err := handler.eventRepo.ListAll(ctx)
	if err != nil {
		slog.Error("finding events for ical", "error", err)
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}
	settings := handler.settingsService.Load(ctx)

	calendar := ical.NewCalendar()
	calendar.SetMethod(ical.MethodPublish)
	calendar.SetProductId("-//KafePano//" + settings.CafeName + "//TR")
	calendar.SetXWRCalName(settings.CafeName)
	calendar.SetXWRTimezone(handler.location.String())

	for _, event := range events {
		start, err := time.ParseInLocation("2006-01-02 15:04", event.Date+" "+event.Time, handler.location)
		if err != nil {
			slog.Warn("skipping event with bad date", "id", event.ID, "error", err)
			continue
		}
		entry := calendar.AddEvent(event.ID + "@kafepano")
		entry.SetSummary(summary(event))
		if event.Description != "" {
			entry.SetDescription(event.Description)
		}
		entry.SetStartAt(start)
		entry.SetEndAt(start.Add(eventDuration))
		stamp := time.Now()
		if event.CreatedAt > 0 {
			stamp = time.UnixMilli(event.CreatedAt)
		}
		entry.SetDtStampTime(stamp)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=kafepano.ics")
	w.Write([]byte(calendar.Serialize()))
}

func summary(event models.Event) string {
	if event.Icon == "" {
		return event.Title
	}
	return strings.TrimSpace(event.Icon + " " + event.Title)
}
