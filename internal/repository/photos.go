package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

type PhotoRepository interface {
	ListActive(ctx context.Context) ([]models.Photo, error)
	ListAll(ctx context.Context) ([]models.Photo, error)
	Subscribe(listener func([]models.Photo)) (contentstore.Subscription, error)
	Add(ctx context.Context, photo models.Photo) (string, error)
	Update(ctx context.Context, id string, patch models.PhotoPatch) error
	Remove(ctx context.Context, id string) error
	Reorder(ctx context.Context, orderedIDs []string) error
}

type StorePhotoRepository struct {
	photos collection[models.Photo]
}

func NewPhotoRepository(store contentstore.Store, c clock.Clock) *StorePhotoRepository {
	return &StorePhotoRepository{
		photos: collection[models.Photo]{
			store:  store,
			path:   PhotosPath,
			clock:  clockOrDefault(c),
			decode: decodePhoto,
		},
	}
}

func decodePhoto(snapshot contentstore.Snapshot) (models.Photo, error) {
	var photo models.Photo
	if err := snapshot.Decode(&photo); err != nil {
		return models.Photo{}, invalid("%v", err)
	}
	photo.ID = snapshot.Key()
	if strings.TrimSpace(photo.URL) == "" {
		return models.Photo{}, invalid("photo url is required")
	}
	return photo, nil
}

// sortByOrder orders by order, then creation time, then id so that equal
// orders still render in a stable sequence.
func sortByOrder(photos []models.Photo) []models.Photo {
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].Order != photos[j].Order {
			return photos[i].Order < photos[j].Order
		}
		if photos[i].CreatedAt != photos[j].CreatedAt {
			return photos[i].CreatedAt < photos[j].CreatedAt
		}
		return photos[i].ID < photos[j].ID
	})
	return photos
}

func (repository *StorePhotoRepository) ListActive(ctx context.Context) ([]models.Photo, error) {
	return repository.ListAll(ctx)
}

func (repository *StorePhotoRepository) ListAll(ctx context.Context) ([]models.Photo, error) {
	photos, err := repository.photos.all(ctx)
	if err != nil {
		return nil, err
	}
	return sortByOrder(photos), nil
}

func (repository *StorePhotoRepository) Subscribe(listener func([]models.Photo)) (contentstore.Subscription, error) {
	return repository.photos.subscribe(sortByOrder, listener)
}

// Add appends the photo after every existing one.
func (repository *StorePhotoRepository) Add(ctx context.Context, photo models.Photo) (string, error) {
	photo.ID = ""
	photo.URL = strings.TrimSpace(photo.URL)
	if photo.URL == "" {
		return "", invalid("photo url is required")
	}
	count, err := repository.photos.count(ctx)
	if err != nil {
		return "", err
	}
	photo.Order = count
	photo.CreatedAt = repository.photos.nowMillis()
	return repository.photos.push(ctx, photo)
}

func (repository *StorePhotoRepository) Update(ctx context.Context, id string, patch models.PhotoPatch) error {
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return invalid("photo url is required")
	}
	fields, err := patchFields(patch)
	if err != nil {
		return err
	}
	return repository.photos.merge(ctx, id, fields)
}

func (repository *StorePhotoRepository) Remove(ctx context.Context, id string) error {
	return repository.photos.remove(ctx, id)
}

// Reorder rewrites the order of every listed photo to its index in one
// atomic multi-location update.
func (repository *StorePhotoRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	snapshot, err := repository.photos.snapshot(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for _, child := range snapshot.Children() {
		existing[child.Key()] = true
	}

	fields := make(map[string]any, len(orderedIDs))
	for index, id := range orderedIDs {
		if !existing[id] {
			return fmt.Errorf("reordering photo %s: %w", id, ErrNotFound)
		}
		if _, duplicate := fields[contentstore.Join(PhotosPath, id, "order")]; duplicate {
			return invalid("photo %s listed twice", id)
		}
		fields[contentstore.Join(PhotosPath, id, "order")] = index
	}

	if err := repository.photos.store.Update(ctx, "", fields); err != nil {
		return fmt.Errorf("reordering photos: %w", err)
	}
	return nil
}
