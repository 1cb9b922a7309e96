package repository

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type EventRepository interface {
	ListActive(ctx context.Context) ([]models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	Subscribe(listener func([]models.Event)) (contentstore.Subscription, error)
	Add(ctx context.Context, event models.Event) (string, error)
	Update(ctx context.Context, id string, patch models.EventPatch) error
	Remove(ctx context.Context, id string) error
	Today() string
}

type StoreEventRepository struct {
	events   collection[models.Event]
	location *time.Location
}

// NewEventRepository reads "today" in location, or UTC when nil.
func NewEventRepository(store contentstore.Store, location *time.Location, c clock.Clock) *StoreEventRepository {
	if location == nil {
		location = time.UTC
	}
	return &StoreEventRepository{
		events: collection[models.Event]{
			store:  store,
			path:   EventsPath,
			clock:  clockOrDefault(c),
			decode: decodeEvent,
		},
		location: location,
	}
}

func decodeEvent(snapshot contentstore.Snapshot) (models.Event, error) {
	var event models.Event
	if err := snapshot.Decode(&event); err != nil {
		return models.Event{}, invalid("%v", err)
	}
	event.ID = snapshot.Key()
	if err := validateEvent(event); err != nil {
		return models.Event{}, err
	}
	if event.Icon == "" {
		event.Icon = models.DefaultEventIcon
	}
	return event, nil
}

func validateEvent(event models.Event) error {
	if strings.TrimSpace(event.Title) == "" {
		return invalid("event title is required")
	}
	if !datePattern.MatchString(event.Date) {
		return invalid("event date %q is not YYYY-MM-DD", event.Date)
	}
	if event.Time != "" && !timePattern.MatchString(event.Time) {
		return invalid("event time %q is not HH:MM", event.Time)
	}
	return nil
}

// Today is the current calendar date in the display location.
func (repository *StoreEventRepository) Today() string {
	return repository.events.clock.Now().In(repository.location).Format("2006-01-02")
}

func (repository *StoreEventRepository) todayView(events []models.Event) []models.Event {
	today := repository.Today()
	var result []models.Event
	for _, event := range events {
		if event.Date == today {
			result = append(result, event)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})
	return result
}

func sortByDateTime(events []models.Event) []models.Event {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Time < events[j].Time
	})
	return events
}

func (repository *StoreEventRepository) ListActive(ctx context.Context) ([]models.Event, error) {
	events, err := repository.events.all(ctx)
	if err != nil {
		return nil, err
	}
	return repository.todayView(events), nil
}

func (repository *StoreEventRepository) ListAll(ctx context.Context) ([]models.Event, error) {
	events, err := repository.events.all(ctx)
	if err != nil {
		return nil, err
	}
	return sortByDateTime(events), nil
}

// Subscribe recomputes the date on every delivery.
func (repository *StoreEventRepository) Subscribe(listener func([]models.Event)) (contentstore.Subscription, error) {
	return repository.events.subscribe(repository.todayView, listener)
}

func (repository *StoreEventRepository) Add(ctx context.Context, event models.Event) (string, error) {
	event.ID = ""
	event.Title = strings.TrimSpace(event.Title)
	if err := validateEvent(event); err != nil {
		return "", err
	}
	event.CreatedAt = repository.events.nowMillis()
	return repository.events.push(ctx, event)
}

func (repository *StoreEventRepository) Update(ctx context.Context, id string, patch models.EventPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return invalid("event title is required")
	}
	if patch.Date != nil && !datePattern.MatchString(*patch.Date) {
		return invalid("event date %q is not YYYY-MM-DD", *patch.Date)
	}
	if patch.Time != nil && *patch.Time != "" && !timePattern.MatchString(*patch.Time) {
		return invalid("event time %q is not HH:MM", *patch.Time)
	}
	fields, err := patchFields(patch)
	if err != nil {
		return err
	}
	return repository.events.merge(ctx, id, fields)
}

func (repository *StoreEventRepository) Remove(ctx context.Context, id string) error {
	return repository.events.remove(ctx, id)
}
