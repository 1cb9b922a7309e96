package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

type SettingsRepository interface {
	Fetch(ctx context.Context) (models.Settings, bool, error)
	Save(ctx context.Context, settings models.Settings) error
	SetField(ctx context.Context, field string, value any) error
	Subscribe(listener func(models.Settings)) (contentstore.Subscription, error)
}

type StoreSettingsRepository struct {
	store contentstore.Store
}

func NewSettingsRepository(store contentstore.Store) *StoreSettingsRepository {
	return &StoreSettingsRepository{store: store}
}

// decodeSettings lays the stored document over the defaults, so any field
// the document lacks keeps its default value.
func decodeSettings(snapshot contentstore.Snapshot) (models.Settings, error) {
	settings := models.DefaultSettings()
	if !snapshot.Exists() {
		return settings, nil
	}
	if err := snapshot.Decode(&settings); err != nil {
		return models.DefaultSettings(), invalid("%v", err)
	}
	return settings, nil
}

// Fetch reports whether a document was stored alongside the decoded value.
func (repository *StoreSettingsRepository) Fetch(ctx context.Context) (models.Settings, bool, error) {
	snapshot, err := repository.store.Get(ctx, SettingsPath)
	if err != nil {
		return models.DefaultSettings(), false, fmt.Errorf("reading settings: %w", err)
	}
	settings, err := decodeSettings(snapshot)
	if err != nil {
		return settings, true, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, snapshot.Exists(), nil
}

func (repository *StoreSettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	if err := repository.store.Set(ctx, SettingsPath, settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// SetField writes one field below "settings", e.g. "widgets/clock/format24h".
func (repository *StoreSettingsRepository) SetField(ctx context.Context, field string, value any) error {
	if err := repository.store.Set(ctx, contentstore.Join(SettingsPath, field), value); err != nil {
		return fmt.Errorf("setting %s: %w", field, err)
	}
	return nil
}

func (repository *StoreSettingsRepository) Subscribe(listener func(models.Settings)) (contentstore.Subscription, error) {
	subscription, err := repository.store.Subscribe(SettingsPath, func(snapshot contentstore.Snapshot) {
		settings, err := decodeSettings(snapshot)
		if err != nil {
			slog.Warn("ignoring malformed settings", "error", err)
			return
		}
		listener(settings)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to settings: %w", err)
	}
	return subscription, nil
}
