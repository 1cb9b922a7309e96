package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
)

var ErrInvalidField = errors.New("invalid settings field")

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// SettingsService fronts the settings document with an in-memory copy that
// every successful write keeps current.
type SettingsService struct {
	repo repository.SettingsRepository

	mu     sync.RWMutex
	cached models.Settings
}

func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo, cached: models.DefaultSettings()}
}

// Load never fails: a missing, unreadable or malformed document yields the
// defaults.
func (service *SettingsService) Load(ctx context.Context) models.Settings {
	settings, _, err := service.repo.Fetch(ctx)
	if err != nil {
		slog.Warn("loading settings, using defaults", "error", err)
		settings = models.DefaultSettings()
	}
	settings = sanitize(settings)
	service.remember(settings)
	return settings
}

// Fetch is Load with the failure surfaced.
func (service *SettingsService) Fetch(ctx context.Context) (models.Settings, error) {
	settings, _, err := service.repo.Fetch(ctx)
	if err != nil {
		return models.DefaultSettings(), err
	}
	settings = sanitize(settings)
	service.remember(settings)
	return settings, nil
}

// EnsureDefaults stores the default document when none exists yet.
func (service *SettingsService) EnsureDefaults(ctx context.Context) error {
	_, found, err := service.repo.Fetch(ctx)
	if err != nil || found {
		return err
	}
	slog.Info("creating default settings")
	return service.Save(ctx, models.DefaultSettings())
}

func (service *SettingsService) Cached() models.Settings {
	service.mu.RLock()
	defer service.mu.RUnlock()
	return service.cached
}

func (service *SettingsService) Save(ctx context.Context, settings models.Settings) error {
	if err := validate(settings); err != nil {
		return err
	}
	if strings.TrimSpace(settings.CafeName) == "" {
		settings.CafeName = models.DefaultCafeName
	}
	if err := service.repo.Save(ctx, settings); err != nil {
		return err
	}
	service.remember(settings)
	return nil
}

// SetField writes one allowed field below "settings" and mirrors it into
// the cached copy.
func (service *SettingsService) SetField(ctx context.Context, field string, value any) error {
	field = strings.Trim(field, "/")
	rule, ok := fieldRules(field)
	if !ok {
		return fmt.Errorf("%w: %q is not editable", ErrInvalidField, field)
	}
	normalized, err := rule.normalize(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidField, field, err)
	}
	if err := service.repo.SetField(ctx, field, normalized); err != nil {
		return err
	}

	service.mu.Lock()
	rule.apply(&service.cached, normalized)
	service.mu.Unlock()
	return nil
}

func (service *SettingsService) Subscribe(listener func(models.Settings)) (contentstore.Subscription, error) {
	return service.repo.Subscribe(func(settings models.Settings) {
		settings = sanitize(settings)
		service.remember(settings)
		listener(settings)
	})
}

func (service *SettingsService) remember(settings models.Settings) {
	service.mu.Lock()
	service.cached = settings
	service.mu.Unlock()
}

// sanitize replaces values a display cannot use with their defaults.
func sanitize(settings models.Settings) models.Settings {
	defaults := models.DefaultSettings()
	if settings.Theme != models.ThemeDark {
		settings.Theme = models.ThemeLight
	}
	if !hexColorPattern.MatchString(settings.PrimaryColor) {
		settings.PrimaryColor = defaults.PrimaryColor
	}
	if settings.SecondaryColor != "" && !hexColorPattern.MatchString(settings.SecondaryColor) {
		settings.SecondaryColor = ""
	}
	if settings.Widgets.Gallery.Interval < 1 {
		settings.Widgets.Gallery.Interval = defaults.Widgets.Gallery.Interval
	}
	if strings.TrimSpace(settings.CafeName) == "" {
		settings.CafeName = defaults.CafeName
	}
	return settings
}

func validate(settings models.Settings) error {
	if settings.Theme != models.ThemeLight && settings.Theme != models.ThemeDark {
		return fmt.Errorf("%w: theme %q", ErrInvalidField, settings.Theme)
	}
	if !hexColorPattern.MatchString(settings.PrimaryColor) {
		return fmt.Errorf("%w: primaryColor %q", ErrInvalidField, settings.PrimaryColor)
	}
	if settings.SecondaryColor != "" && !hexColorPattern.MatchString(settings.SecondaryColor) {
		return fmt.Errorf("%w: secondaryColor %q", ErrInvalidField, settings.SecondaryColor)
	}
	if settings.Widgets.Gallery.Interval < 1 {
		return fmt.Errorf("%w: gallery interval must be at least 1", ErrInvalidField)
	}
	if _, ok := LookupCity(settings.Widgets.Weather.City); !ok {
		return fmt.Errorf("%w: unsupported city %q", ErrInvalidField, settings.Widgets.Weather.City)
	}
	return nil
}

type fieldRule struct {
	normalize func(any) (any, error)
	apply     func(*models.Settings, any)
}

func fieldRules(field string) (fieldRule, bool) {
	switch field {
	case "cafeName":
		return fieldRule{
			normalize: func(value any) (any, error) {
				name, err := asString(value)
				if err != nil {
					return nil, err
				}
				if name = strings.TrimSpace(name); name == "" {
					name = models.DefaultCafeName
				}
				return name, nil
			},
			apply: func(settings *models.Settings, value any) { settings.CafeName = value.(string) },
		}, true
	case "theme":
		return fieldRule{
			normalize: func(value any) (any, error) {
				theme, err := asString(value)
				if err != nil {
					return nil, err
				}
				if theme != string(models.ThemeLight) && theme != string(models.ThemeDark) {
					return nil, fmt.Errorf("unknown theme %q", theme)
				}
				return theme, nil
			},
			apply: func(settings *models.Settings, value any) { settings.Theme = models.Theme(value.(string)) },
		}, true
	case "primaryColor":
		return fieldRule{
			normalize: hexColor,
			apply:     func(settings *models.Settings, value any) { settings.PrimaryColor = value.(string) },
		}, true
	case "secondaryColor":
		return fieldRule{
			normalize: hexColor,
			apply:     func(settings *models.Settings, value any) { settings.SecondaryColor = value.(string) },
		}, true
	case "logoUrl":
		return fieldRule{
			normalize: func(value any) (any, error) {
				if value == nil {
					return nil, nil
				}
				logo, err := asString(value)
				if err != nil {
					return nil, err
				}
				if logo = strings.TrimSpace(logo); logo == "" {
					return nil, nil
				}
				return logo, nil
			},
			apply: func(settings *models.Settings, value any) {
				logo, _ := value.(string)
				settings.LogoURL = logo
			},
		}, true
	case "widgets/weather/city":
		return fieldRule{
			normalize: func(value any) (any, error) {
				name, err := asString(value)
				if err != nil {
					return nil, err
				}
				if _, ok := LookupCity(name); !ok {
					return nil, fmt.Errorf("unsupported city %q", name)
				}
				return name, nil
			},
			apply: func(settings *models.Settings, value any) { settings.Widgets.Weather.City = value.(string) },
		}, true
	case "widgets/gallery/interval":
		return fieldRule{
			normalize: func(value any) (any, error) {
				seconds, err := asInt(value)
				if err != nil {
					return nil, err
				}
				if seconds < 1 {
					return nil, errors.New("interval must be at least 1 second")
				}
				return seconds, nil
			},
			apply: func(settings *models.Settings, value any) { settings.Widgets.Gallery.Interval = value.(int) },
		}, true
	case "widgets/clock/format24h":
		return boolRule(func(settings *models.Settings, value bool) { settings.Widgets.Clock.Format24h = value }), true
	case "widgets/clock/showDate":
		return boolRule(func(settings *models.Settings, value bool) { settings.Widgets.Clock.ShowDate = value }), true
	}

	parts := strings.Split(field, "/")
	if len(parts) == 3 && parts[0] == "widgets" && parts[2] == "enabled" && models.WidgetName(parts[1]).Valid() {
		name := models.WidgetName(parts[1])
		return boolRule(func(settings *models.Settings, value bool) { setWidgetEnabled(settings, name, value) }), true
	}
	return fieldRule{}, false
}

func boolRule(apply func(*models.Settings, bool)) fieldRule {
	return fieldRule{
		normalize: func(value any) (any, error) {
			flag, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("expected a boolean, got %T", value)
			}
			return flag, nil
		},
		apply: func(settings *models.Settings, value any) { apply(settings, value.(bool)) },
	}
}

func setWidgetEnabled(settings *models.Settings, name models.WidgetName, enabled bool) {
	switch name {
	case models.WidgetCalendar:
		settings.Widgets.Calendar.Enabled = enabled
	case models.WidgetGallery:
		settings.Widgets.Gallery.Enabled = enabled
	case models.WidgetAnnouncement:
		settings.Widgets.Announcement.Enabled = enabled
	case models.WidgetClock:
		settings.Widgets.Clock.Enabled = enabled
	case models.WidgetWeather:
		settings.Widgets.Weather.Enabled = enabled
	case models.WidgetMenu:
		settings.Widgets.Menu.Enabled = enabled
	}
}

func hexColor(value any) (any, error) {
	color, err := asString(value)
	if err != nil {
		return nil, err
	}
	if !hexColorPattern.MatchString(color) {
		return nil, fmt.Errorf("%q is not a #RRGGBB color", color)
	}
	return color, nil
}

func asString(value any) (string, error) {
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected a string, got %T", value)
	}
	return text, nil
}

func asInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		if typed != math.Trunc(typed) {
			return 0, fmt.Errorf("%v is not a whole number", typed)
		}
		return int(typed), nil
	case json.Number:
		number, err := typed.Int64()
		if err != nil {
			return 0, fmt.Errorf("%v is not a whole number", typed)
		}
		return int(number), nil
	case string:
		var number int
		if _, err := fmt.Sscanf(typed, "%d", &number); err != nil {
			return 0, fmt.Errorf("%q is not a number", typed)
		}
		return number, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", value)
}
