package display

import (
	"context"
	"html/template"
	"strings"
	"sync"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

type fakeScreen struct {
	mu       sync.Mutex
	html     map[Region]template.HTML
	renders  map[Region]int
	visible  map[Region]bool
	theme    Theme
	themes   int
	cafeName string
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{
		html:    make(map[Region]template.HTML),
		renders: make(map[Region]int),
		visible: make(map[Region]bool),
	}
}

func (screen *fakeScreen) Render(region Region, html template.HTML) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	screen.html[region] = html
	screen.renders[region]++
}

func (screen *fakeScreen) SetVisible(region Region, visible bool) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	screen.visible[region] = visible
}

func (screen *fakeScreen) ApplyTheme(theme Theme) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	screen.theme = theme
	screen.themes++
}

func (screen *fakeScreen) SetCafeName(name string) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	screen.cafeName = name
}

func (screen *fakeScreen) contains(region Region, text string) bool {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	return strings.Contains(string(screen.html[region]), text)
}

func (screen *fakeScreen) renderCount(region Region) int {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	return screen.renders[region]
}

func (screen *fakeScreen) isVisible(region Region) (visible bool, known bool) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	visible, known = screen.visible[region]
	return visible, known
}

func (screen *fakeScreen) currentTheme() Theme {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	return screen.theme
}

func (screen *fakeScreen) name() string {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	return screen.cafeName
}

type fakeWeather struct {
	mu     sync.Mutex
	calls  []string
	report services.Report
	err    error
}

func (fetcher *fakeWeather) FetchCurrent(ctx context.Context, city string) (services.Report, error) {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	fetcher.calls = append(fetcher.calls, city)
	if fetcher.err != nil {
		return services.PlaceholderReport(city), fetcher.err
	}
	report := fetcher.report
	report.City = city
	return report, nil
}

func (fetcher *fakeWeather) callCount() int {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	return len(fetcher.calls)
}
