package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

type MenuItemRepository interface {
	ListActive(ctx context.Context) ([]models.MenuItem, error)
	ListAll(ctx context.Context) ([]models.MenuItem, error)
	Subscribe(listener func([]models.MenuItem)) (contentstore.Subscription, error)
	Add(ctx context.Context, item models.MenuItem) (string, error)
	Update(ctx context.Context, id string, patch models.MenuItemPatch) error
	SetAvailable(ctx context.Context, id string, available bool) error
	Remove(ctx context.Context, id string) error
}

type StoreMenuItemRepository struct {
	items collection[models.MenuItem]
}

func NewMenuItemRepository(store contentstore.Store, c clock.Clock) *StoreMenuItemRepository {
	return &StoreMenuItemRepository{
		items: collection[models.MenuItem]{
			store:  store,
			path:   MenuItemsPath,
			clock:  clockOrDefault(c),
			decode: decodeMenuItem,
		},
	}
}

func decodeMenuItem(snapshot contentstore.Snapshot) (models.MenuItem, error) {
	item := models.MenuItem{Available: true}
	if err := snapshot.Decode(&item); err != nil {
		return models.MenuItem{}, invalid("%v", err)
	}
	item.ID = snapshot.Key()
	if strings.TrimSpace(item.Name) == "" {
		return models.MenuItem{}, invalid("menu item name is required")
	}
	if item.Icon == "" {
		item.Icon = models.DefaultMenuIcon
	}
	return item, nil
}

func sortMenu(items []models.MenuItem) []models.MenuItem {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// ListActive returns the whole menu; unavailable items stay listed and are
// rendered as such.
func (repository *StoreMenuItemRepository) ListActive(ctx context.Context) ([]models.MenuItem, error) {
	return repository.ListAll(ctx)
}

func (repository *StoreMenuItemRepository) ListAll(ctx context.Context) ([]models.MenuItem, error) {
	items, err := repository.items.all(ctx)
	if err != nil {
		return nil, err
	}
	return sortMenu(items), nil
}

func (repository *StoreMenuItemRepository) Subscribe(listener func([]models.MenuItem)) (contentstore.Subscription, error) {
	return repository.items.subscribe(sortMenu, listener)
}

func (repository *StoreMenuItemRepository) Add(ctx context.Context, item models.MenuItem) (string, error) {
	item.ID = ""
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return "", invalid("menu item name is required")
	}
	count, err := repository.items.count(ctx)
	if err != nil {
		return "", err
	}
	item.Available = true
	item.Order = count
	item.CreatedAt = repository.items.nowMillis()
	return repository.items.push(ctx, item)
}

func (repository *StoreMenuItemRepository) Update(ctx context.Context, id string, patch models.MenuItemPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return invalid("menu item name is required")
	}
	fields, err := patchFields(patch)
	if err != nil {
		return err
	}
	return repository.items.merge(ctx, id, fields)
}

func (repository *StoreMenuItemRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	return repository.items.merge(ctx, id, map[string]any{"available": available})
}

func (repository *StoreMenuItemRepository) Remove(ctx context.Context, id string) error {
	return repository.items.remove(ctx, id)
}
