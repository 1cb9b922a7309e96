package display

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/components"
	"github.com/goodsign/monday"
)

const clockInterval = time.Second

type ClockOptions struct {
	Format24h bool
	ShowDate  bool
}

// FormatTime renders "09:05" in 24-hour mode and "9:05 AM" otherwise.
func FormatTime(t time.Time, format24h bool) string {
	if format24h {
		return t.Format("15:04")
	}
	return t.Format("3:04 PM")
}

var dateLayouts = map[monday.Locale]string{
	monday.LocaleTrTR: "2 January Monday",
	monday.LocaleDeDE: "Monday, 2. January",
	monday.LocaleFrFR: "Monday 2 January",
}

// FormatDate is the long weekday, day and month form in the given locale.
func FormatDate(t time.Time, locale monday.Locale) string {
	layout, ok := dateLayouts[locale]
	if !ok {
		layout = "Monday, January 2"
	}
	return monday.Format(t, layout, locale)
}

// Clock is the header clock, redrawn once a second.
type Clock struct {
	screen   Screen
	clock    clock.Clock
	location *time.Location
	locale   monday.Locale
	repeater *Repeater

	mu      sync.Mutex
	options ClockOptions
}

func NewClock(screen Screen, c clock.Clock, location *time.Location, locale monday.Locale) *Clock {
	if c == nil {
		c = clock.New()
	}
	if location == nil {
		location = time.Local
	}
	return &Clock{
		screen:   screen,
		clock:    c,
		location: location,
		locale:   locale,
		repeater: NewRepeater(c),
	}
}

// Start draws immediately and then every second. A second Start replaces
// the first, options included.
func (widget *Clock) Start(options ClockOptions) {
	widget.mu.Lock()
	widget.options = options
	widget.renderLocked()
	widget.mu.Unlock()

	widget.repeater.Start(clockInterval, widget.tick)
}

func (widget *Clock) Stop() {
	widget.repeater.Stop()
}

func (widget *Clock) Running() bool {
	return widget.repeater.Running()
}

func (widget *Clock) tick() {
	widget.mu.Lock()
	defer widget.mu.Unlock()
	widget.renderLocked()
}

func (widget *Clock) renderLocked() {
	now := widget.clock.Now().In(widget.location)
	widget.screen.Render(RegionClock, components.ClockCompact(
		FormatTime(now, widget.options.Format24h),
		FormatDate(now, widget.locale),
		widget.options.ShowDate,
	))
}

func (widget *Clock) Options() ClockOptions {
	widget.mu.Lock()
	defer widget.mu.Unlock()
	return widget.options
}
