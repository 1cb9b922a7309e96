// Package display drives one signage screen: it renders the enabled widgets,
// keeps their timers running and follows content and settings changes.
package display

import "html/template"

type Region string

const (
	RegionClock        Region = "clock"
	RegionWeather      Region = "weather"
	RegionCalendar     Region = "calendar"
	RegionCalendarDate Region = "calendarDate"
	RegionGallery      Region = "gallery"
	RegionAnnouncement Region = "announcement"
	RegionMenu         Region = "menu"
)

type Theme struct {
	Dark           bool   `json:"dark"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
}

// Screen receives everything a session draws. Calls arrive from timer and
// subscription goroutines, so implementations must be safe for concurrent
// use.
type Screen interface {
	Render(region Region, html template.HTML)
	SetVisible(region Region, visible bool)
	ApplyTheme(theme Theme)
	SetCafeName(name string)
}
