package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
)

const (
	SettingsPath      = "settings"
	EventsPath        = "content/events"
	PhotosPath        = "content/photos"
	AnnouncementsPath = "content/announcements"
	MenuItemsPath     = "content/menuItems"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

// collection wraps one content path holding records keyed by push id.
type collection[T any] struct {
	store contentstore.Store
	path  string
	clock clock.Clock
	// decode turns one child into a record, applying defaults and
	// rejecting anything unusable.
	decode func(contentstore.Snapshot) (T, error)
}

func (collection *collection[T]) records(snapshot contentstore.Snapshot) []T {
	var records []T
	for _, child := range snapshot.Children() {
		record, err := collection.decode(child)
		if err != nil {
			slog.Warn("skipping malformed record", "path", child.Path, "error", err)
			continue
		}
		records = append(records, record)
	}
	return records
}

func (collection *collection[T]) snapshot(ctx context.Context) (contentstore.Snapshot, error) {
	snapshot, err := collection.store.Get(ctx, collection.path)
	if err != nil {
		return contentstore.Snapshot{}, fmt.Errorf("reading %s: %w", collection.path, err)
	}
	return snapshot, nil
}

func (collection *collection[T]) all(ctx context.Context) ([]T, error) {
	snapshot, err := collection.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return collection.records(snapshot), nil
}

func (collection *collection[T]) count(ctx context.Context) (int, error) {
	snapshot, err := collection.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(snapshot.Children()), nil
}

func (collection *collection[T]) push(ctx context.Context, record any) (string, error) {
	id, err := collection.store.Push(ctx, collection.path, record)
	if err != nil {
		return "", fmt.Errorf("adding to %s: %w", collection.path, err)
	}
	return id, nil
}

func (collection *collection[T]) exists(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%s: %w", collection.path, ErrNotFound)
	}
	snapshot, err := collection.store.Get(ctx, contentstore.Join(collection.path, id))
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", collection.path, id, err)
	}
	if !snapshot.Exists() {
		return fmt.Errorf("%s/%s: %w", collection.path, id, ErrNotFound)
	}
	return nil
}

// merge patches the named fields of an existing record.
func (collection *collection[T]) merge(ctx context.Context, id string, fields map[string]any) error {
	if err := collection.exists(ctx, id); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if err := collection.store.Update(ctx, contentstore.Join(collection.path, id), fields); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection.path, id, err)
	}
	return nil
}

func (collection *collection[T]) remove(ctx context.Context, id string) error {
	if err := collection.exists(ctx, id); err != nil {
		return err
	}
	if err := collection.store.Remove(ctx, contentstore.Join(collection.path, id)); err != nil {
		return fmt.Errorf("removing %s/%s: %w", collection.path, id, err)
	}
	return nil
}

func (collection *collection[T]) subscribe(view func([]T) []T, listener func([]T)) (contentstore.Subscription, error) {
	subscription, err := collection.store.Subscribe(collection.path, func(snapshot contentstore.Snapshot) {
		listener(view(collection.records(snapshot)))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", collection.path, err)
	}
	return subscription, nil
}

func (collection *collection[T]) nowMillis() int64 {
	return collection.clock.Now().UnixMilli()
}

// patchFields converts a patch struct with pointer fields into the set of
// fields it names.
func patchFields(patch any) (map[string]any, error) {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("decoding patch: %w", err)
	}
	return fields, nil
}

func clockOrDefault(c clock.Clock) clock.Clock {
	if c == nil {
		return clock.New()
	}
	return c
}
