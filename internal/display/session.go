package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/components"
	"github.com/goodsign/monday"
)

const dayCheckInterval = time.Minute

// SettingsSource is the part of the settings service a display reads.
type SettingsSource interface {
	Load(ctx context.Context) models.Settings
	Subscribe(listener func(models.Settings)) (contentstore.Subscription, error)
}

type Sources struct {
	Settings      SettingsSource
	Events        repository.EventRepository
	Photos        repository.PhotoRepository
	Announcements repository.AnnouncementRepository
	MenuItems     repository.MenuItemRepository
	Weather       WeatherFetcher
}

type Options struct {
	Clock    clock.Clock
	Location *time.Location
	Locale   monday.Locale
}

// Session is one connected screen. Every session owns its own widgets and
// timers, so any number of screens can run side by side.
type Session struct {
	screen   Screen
	sources  Sources
	clock    clock.Clock
	location *time.Location
	locale   monday.Locale

	clockWidget *Clock
	slideshow   *Slideshow
	rotation    *Rotation
	weather     *WeatherPoller
	dayWatch    *Repeater

	mu            sync.Mutex
	cancel        context.CancelFunc
	subscriptions []contentstore.Subscription
	day           string
	visible       bool
	started       bool
	closed        bool
}

func NewSession(screen Screen, sources Sources, options Options) *Session {
	if options.Clock == nil {
		options.Clock = clock.New()
	}
	if options.Location == nil {
		options.Location = time.Local
	}
	if options.Locale == "" {
		options.Locale = monday.LocaleTrTR
	}
	return &Session{
		screen:      screen,
		sources:     sources,
		clock:       options.Clock,
		location:    options.Location,
		locale:      options.Locale,
		clockWidget: NewClock(screen, options.Clock, options.Location, options.Locale),
		slideshow:   NewSlideshow(screen, options.Clock),
		rotation:    NewRotation(screen, options.Clock),
		weather:     NewWeatherPoller(screen, sources.Weather, options.Clock),
		dayWatch:    NewRepeater(options.Clock),
		visible:     true,
	}
}

// Start applies the settings, activates every enabled widget and follows
// settings changes until Close. It fails only when a subscription cannot be
// registered; the widgets already running are torn down in that case.
func (session *Session) Start(ctx context.Context) error {
	session.mu.Lock()
	if session.started || session.closed {
		session.mu.Unlock()
		return errors.New("display session already started")
	}
	session.started = true
	ctx, session.cancel = context.WithCancel(ctx)
	session.mu.Unlock()

	settings := session.sources.Settings.Load(ctx)
	session.applySettings(settings)

	if err := session.startWidgets(ctx, settings.Widgets); err != nil {
		session.Close()
		return err
	}

	subscription, err := session.sources.Settings.Subscribe(session.applySettings)
	if err != nil {
		session.Close()
		return fmt.Errorf("subscribing to settings: %w", err)
	}
	return session.keep(subscription)
}

func (session *Session) applySettings(settings models.Settings) {
	session.screen.ApplyTheme(Theme{
		Dark:           settings.Theme == models.ThemeDark,
		PrimaryColor:   settings.PrimaryColor,
		SecondaryColor: settings.SecondaryColor,
	})
	name := settings.CafeName
	if name == "" {
		name = models.DefaultCafeName
	}
	session.screen.SetCafeName(name)
}

func (session *Session) startWidgets(ctx context.Context, widgets models.Widgets) error {
	if widgets.Clock.Enabled {
		session.screen.SetVisible(RegionClock, true)
		session.clockWidget.Start(ClockOptions{Format24h: widgets.Clock.Format24h, ShowDate: widgets.Clock.ShowDate})
	} else {
		session.screen.SetVisible(RegionClock, false)
	}

	if widgets.Weather.Enabled {
		session.screen.SetVisible(RegionWeather, true)
		session.weather.Start(ctx, widgets.Weather.City)
	} else {
		session.screen.SetVisible(RegionWeather, false)
	}

	session.screen.SetVisible(RegionCalendar, widgets.Calendar.Enabled)
	if widgets.Calendar.Enabled {
		session.renderCalendarDate()
		subscription, err := session.sources.Events.Subscribe(func(events []models.Event) {
			session.renderCalendarDate()
			session.screen.Render(RegionCalendar, components.Calendar(events))
		})
		if err := session.keepOrFail("events", subscription, err); err != nil {
			return err
		}
		session.mu.Lock()
		session.day = session.sources.Events.Today()
		session.mu.Unlock()
		session.dayWatch.Start(dayCheckInterval, func() { session.rollDay(ctx) })
	}

	session.screen.SetVisible(RegionGallery, widgets.Gallery.Enabled)
	if widgets.Gallery.Enabled {
		interval := time.Duration(widgets.Gallery.Interval) * time.Second
		subscription, err := session.sources.Photos.Subscribe(func(photos []models.Photo) {
			session.slideshow.SetPhotos(photos)
			if len(photos) > 0 && session.isVisible() {
				session.slideshow.Start(interval)
				return
			}
			session.slideshow.Stop()
			session.slideshow.Render()
		})
		if err := session.keepOrFail("photos", subscription, err); err != nil {
			return err
		}
	}

	if widgets.Announcement.Enabled {
		subscription, err := session.sources.Announcements.Subscribe(func(announcements []models.Announcement) {
			session.rotation.SetAnnouncements(announcements)
			if session.isVisible() {
				session.rotation.Start()
			}
		})
		if err := session.keepOrFail("announcements", subscription, err); err != nil {
			return err
		}
	} else {
		session.screen.SetVisible(RegionAnnouncement, false)
	}

	session.screen.SetVisible(RegionMenu, widgets.Menu.Enabled)
	if widgets.Menu.Enabled {
		subscription, err := session.sources.MenuItems.Subscribe(func(items []models.MenuItem) {
			session.screen.Render(RegionMenu, components.Menu(items))
		})
		if err := session.keepOrFail("menu items", subscription, err); err != nil {
			return err
		}
	}
	return nil
}

// rollDay redraws the calendar once the local date changes, since no
// write announces midnight.
func (session *Session) rollDay(ctx context.Context) {
	today := session.sources.Events.Today()
	session.mu.Lock()
	if today == session.day {
		session.mu.Unlock()
		return
	}
	session.day = today
	session.mu.Unlock()

	events, err := session.sources.Events.ListActive(ctx)
	if err != nil {
		slog.Warn("refreshing events for a new day", "day", today, "error", err)
	}
	session.renderCalendarDate()
	session.screen.Render(RegionCalendar, components.Calendar(events))
}

func (session *Session) renderCalendarDate() {
	today := session.clock.Now().In(session.location)
	session.screen.Render(RegionCalendarDate, components.Text(FormatDate(today, session.locale)))
}

func (session *Session) keepOrFail(name string, subscription contentstore.Subscription, err error) error {
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", name, err)
	}
	return session.keep(subscription)
}

func (session *Session) keep(subscription contentstore.Subscription) error {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.closed {
		subscription.Close()
		return errors.New("display session closed")
	}
	session.subscriptions = append(session.subscriptions, subscription)
	return nil
}

func (session *Session) isVisible() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.visible && !session.closed
}

// SetVisible pauses the gallery and the announcement rotation while the
// screen is hidden. Becoming visible restarts them from scratch.
func (session *Session) SetVisible(visible bool) {
	session.mu.Lock()
	if session.closed || session.visible == visible {
		session.mu.Unlock()
		return
	}
	session.visible = visible
	session.mu.Unlock()

	if !visible {
		session.slideshow.Stop()
		session.rotation.Stop()
		return
	}
	if session.slideshow.Len() > 0 {
		session.slideshow.Restart(0)
	}
	if session.rotation.Len() > 0 {
		session.rotation.Restart()
	}
}

// Close stops every timer and subscription. It is safe to call more than
// once.
func (session *Session) Close() {
	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return
	}
	session.closed = true
	subscriptions := session.subscriptions
	session.subscriptions = nil
	cancel := session.cancel
	session.mu.Unlock()

	for _, subscription := range subscriptions {
		subscription.Close()
	}
	session.clockWidget.Stop()
	session.slideshow.Stop()
	session.rotation.Stop()
	session.weather.Stop()
	session.dayWatch.Stop()
	if cancel != nil {
		cancel()
	}
}
