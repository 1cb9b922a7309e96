package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/components"
)

const WeatherInterval = 30 * time.Minute

type WeatherFetcher interface {
	FetchCurrent(ctx context.Context, city string) (services.Report, error)
}

// WeatherPoller refreshes the header weather badge. Failed fetches show the
// placeholder and the next poll tries again.
type WeatherPoller struct {
	screen   Screen
	fetcher  WeatherFetcher
	repeater *Repeater

	mu     sync.Mutex
	city   string
	report services.Report
}

func NewWeatherPoller(screen Screen, fetcher WeatherFetcher, c clock.Clock) *WeatherPoller {
	return &WeatherPoller{screen: screen, fetcher: fetcher, repeater: NewRepeater(c)}
}

// Start fetches and draws once, then polls every 30 minutes until Stop.
// Ticks after ctx is done are skipped.
func (poller *WeatherPoller) Start(ctx context.Context, city string) {
	poller.mu.Lock()
	poller.city = city
	poller.mu.Unlock()

	poller.Refresh(ctx)
	poller.repeater.Start(WeatherInterval, func() {
		if ctx.Err() != nil {
			return
		}
		poller.Refresh(ctx)
	})
}

func (poller *WeatherPoller) Stop() {
	poller.repeater.Stop()
}

func (poller *WeatherPoller) Running() bool {
	return poller.repeater.Running()
}

func (poller *WeatherPoller) Refresh(ctx context.Context) {
	poller.mu.Lock()
	city := poller.city
	poller.mu.Unlock()

	report, err := poller.fetcher.FetchCurrent(ctx, city)
	if err != nil {
		slog.Warn("fetching weather", "city", city, "error", err)
		report = services.PlaceholderReport(report.City)
		if report.City == "" {
			report.City = city
		}
	}

	poller.mu.Lock()
	poller.report = report
	poller.mu.Unlock()
	poller.screen.Render(RegionWeather, components.WeatherCompact(report))
}

func (poller *WeatherPoller) Report() services.Report {
	poller.mu.Lock()
	defer poller.mu.Unlock()
	return poller.report
}
