package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

type AnnouncementRepository interface {
	ListActive(ctx context.Context) ([]models.Announcement, error)
	ListAll(ctx context.Context) ([]models.Announcement, error)
	Subscribe(listener func([]models.Announcement)) (contentstore.Subscription, error)
	Add(ctx context.Context, announcement models.Announcement) (string, error)
	Update(ctx context.Context, id string, patch models.AnnouncementPatch) error
	SetActive(ctx context.Context, id string, active bool) error
	Remove(ctx context.Context, id string) error
}

type StoreAnnouncementRepository struct {
	announcements collection[models.Announcement]
}

func NewAnnouncementRepository(store contentstore.Store, c clock.Clock) *StoreAnnouncementRepository {
	return &StoreAnnouncementRepository{
		announcements: collection[models.Announcement]{
			store:  store,
			path:   AnnouncementsPath,
			clock:  clockOrDefault(c),
			decode: decodeAnnouncement,
		},
	}
}

func decodeAnnouncement(snapshot contentstore.Snapshot) (models.Announcement, error) {
	announcement := models.Announcement{Priority: models.PriorityNormal, Active: true}
	if err := snapshot.Decode(&announcement); err != nil {
		return models.Announcement{}, invalid("%v", err)
	}
	announcement.ID = snapshot.Key()
	if strings.TrimSpace(announcement.Text) == "" {
		return models.Announcement{}, invalid("announcement text is required")
	}
	if announcement.Priority != models.PriorityHigh {
		announcement.Priority = models.PriorityNormal
	}
	return announcement, nil
}

func validPriority(priority models.Priority) bool {
	return priority == models.PriorityNormal || priority == models.PriorityHigh
}

func newestFirst(announcements []models.Announcement) []models.Announcement {
	sort.SliceStable(announcements, func(i, j int) bool {
		if announcements[i].CreatedAt != announcements[j].CreatedAt {
			return announcements[i].CreatedAt > announcements[j].CreatedAt
		}
		return announcements[i].ID > announcements[j].ID
	})
	return announcements
}

// activeView keeps active announcements, high priority first, newest first
// within each tier.
func activeView(announcements []models.Announcement) []models.Announcement {
	var active []models.Announcement
	for _, announcement := range announcements {
		if announcement.Active {
			active = append(active, announcement)
		}
	}
	newestFirst(active)
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority == models.PriorityHigh && active[j].Priority != models.PriorityHigh
	})
	return active
}

func (repository *StoreAnnouncementRepository) ListActive(ctx context.Context) ([]models.Announcement, error) {
	announcements, err := repository.announcements.all(ctx)
	if err != nil {
		return nil, err
	}
	return activeView(announcements), nil
}

func (repository *StoreAnnouncementRepository) ListAll(ctx context.Context) ([]models.Announcement, error) {
	announcements, err := repository.announcements.all(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(announcements), nil
}

func (repository *StoreAnnouncementRepository) Subscribe(listener func([]models.Announcement)) (contentstore.Subscription, error) {
	return repository.announcements.subscribe(activeView, listener)
}

// Add always stores the announcement as active.
func (repository *StoreAnnouncementRepository) Add(ctx context.Context, announcement models.Announcement) (string, error) {
	announcement.ID = ""
	announcement.Text = strings.TrimSpace(announcement.Text)
	if announcement.Text == "" {
		return "", invalid("announcement text is required")
	}
	if announcement.Priority == "" {
		announcement.Priority = models.PriorityNormal
	}
	if !validPriority(announcement.Priority) {
		return "", invalid("unknown priority %q", announcement.Priority)
	}
	announcement.Active = true
	announcement.CreatedAt = repository.announcements.nowMillis()
	return repository.announcements.push(ctx, announcement)
}

func (repository *StoreAnnouncementRepository) Update(ctx context.Context, id string, patch models.AnnouncementPatch) error {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return invalid("announcement text is required")
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return invalid("unknown priority %q", *patch.Priority)
	}
	fields, err := patchFields(patch)
	if err != nil {
		return err
	}
	return repository.announcements.merge(ctx, id, fields)
}

func (repository *StoreAnnouncementRepository) SetActive(ctx context.Context, id string, active bool) error {
	return repository.announcements.merge(ctx, id, map[string]any{"active": active})
}

func (repository *StoreAnnouncementRepository) Remove(ctx context.Context, id string) error {
	return repository.announcements.remove(ctx, id)
}
