// Package components renders the display widgets into HTML fragments.
package components

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"strings"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
)

//go:embed *.html
var files embed.FS

var widgets = template.Must(template.ParseFS(files, "*.html"))

const marqueeSeparator = "  •  "

func execute(name string, data any) template.HTML {
	var buffer bytes.Buffer
	if err := widgets.ExecuteTemplate(&buffer, name, data); err != nil {
		slog.Error("rendering component", "component", name, "error", err)
		return ""
	}
	return template.HTML(strings.TrimSpace(buffer.String()))
}

// Calendar lists today's events, or the empty state.
func Calendar(events []models.Event) template.HTML {
	return execute("calendar", events)
}

type galleryView struct {
	Photo *models.Photo
	Index int
	Count int
	Dots  []int
}

// Gallery shows the photo at index. The index wraps around the list so a
// stale position after the list shrinks still renders.
func Gallery(photos []models.Photo, index int) template.HTML {
	view := galleryView{Count: len(photos)}
	if len(photos) > 0 {
		view.Index = wrap(index, len(photos))
		view.Photo = &photos[view.Index]
		view.Dots = make([]int, len(photos))
		for i := range view.Dots {
			view.Dots[i] = i
		}
	}
	return execute("gallery", view)
}

type announcementView struct {
	High    bool
	Text    string
	Marquee string
}

// Announcement renders the banner body. With more than one announcement
// every text runs in a single marquee; the icon follows the one at index.
// It returns "" for an empty list, which callers show by hiding the banner.
func Announcement(announcements []models.Announcement, index int) template.HTML {
	if len(announcements) == 0 {
		return ""
	}
	current := announcements[wrap(index, len(announcements))]
	view := announcementView{High: current.Priority == models.PriorityHigh, Text: current.Text}
	if len(announcements) > 1 {
		texts := make([]string, len(announcements))
		for i, announcement := range announcements {
			texts[i] = announcement.Text
		}
		view.Marquee = strings.Join(texts, marqueeSeparator)
	}
	return execute("announcement", view)
}

type clockView struct {
	Time     string
	Date     string
	ShowDate bool
}

// ClockCompact is the header clock.
func ClockCompact(time, date string, showDate bool) template.HTML {
	return execute("clock-compact", clockView{Time: time, Date: date, ShowDate: showDate})
}

func ClockFull(time, date string) template.HTML {
	return execute("clock-full", clockView{Time: time, Date: date, ShowDate: true})
}

type weatherView struct {
	City        string
	Icon        string
	Temperature string
	Description string
}

func newWeatherView(report services.Report) weatherView {
	return weatherView{
		City:        report.City,
		Icon:        report.Icon,
		Temperature: report.TemperatureLabel(),
		Description: report.Description,
	}
}

// WeatherCompact is the header weather badge.
func WeatherCompact(report services.Report) template.HTML {
	return execute("weather-compact", newWeatherView(report))
}

func WeatherFull(report services.Report) template.HTML {
	return execute("weather-full", newWeatherView(report))
}

// Menu lists every item; unavailable ones are marked rather than hidden.
func Menu(items []models.MenuItem) template.HTML {
	return execute("menu", items)
}

// Text escapes plain text for a region that holds no markup.
func Text(text string) template.HTML {
	return template.HTML(template.HTMLEscapeString(text))
}

func wrap(index, count int) int {
	index %= count
	if index < 0 {
		index += count
	}
	return index
}
