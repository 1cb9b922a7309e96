package models

import "time"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type WidgetName string

const (
	WidgetCalendar     WidgetName = "calendar"
	WidgetGallery      WidgetName = "gallery"
	WidgetAnnouncement WidgetName = "announcement"
	WidgetClock        WidgetName = "clock"
	WidgetWeather      WidgetName = "weather"
	WidgetMenu         WidgetName = "menu"
)

var WidgetNames = []WidgetName{
	WidgetCalendar, WidgetGallery, WidgetAnnouncement, WidgetClock, WidgetWeather, WidgetMenu,
}

func (name WidgetName) Valid() bool {
	for _, known := range WidgetNames {
		if name == known {
			return true
		}
	}
	return false
}

const (
	DefaultCafeName        = "KafePano"
	DefaultPrimaryColor    = "#8B4513"
	DefaultGalleryInterval = 5
	DefaultCity            = "Istanbul"
	DefaultEventIcon       = "📌"
	DefaultMenuIcon        = "🍽️"
)

type WidgetConfig struct {
	Enabled bool `json:"enabled"`
}

type GalleryConfig struct {
	Enabled  bool `json:"enabled"`
	Interval int  `json:"interval"`
}

type ClockConfig struct {
	Enabled   bool `json:"enabled"`
	Format24h bool `json:"format24h"`
	ShowDate  bool `json:"showDate"`
}

type WeatherConfig struct {
	Enabled bool   `json:"enabled"`
	City    string `json:"city"`
}

type Widgets struct {
	Calendar     WidgetConfig  `json:"calendar"`
	Gallery      GalleryConfig `json:"gallery"`
	Announcement WidgetConfig  `json:"announcement"`
	Clock        ClockConfig   `json:"clock"`
	Weather      WeatherConfig `json:"weather"`
	Menu         WidgetConfig  `json:"menu"`
}

func (widgets Widgets) Enabled(name WidgetName) bool {
	switch name {
	case WidgetCalendar:
		return widgets.Calendar.Enabled
	case WidgetGallery:
		return widgets.Gallery.Enabled
	case WidgetAnnouncement:
		return widgets.Announcement.Enabled
	case WidgetClock:
		return widgets.Clock.Enabled
	case WidgetWeather:
		return widgets.Weather.Enabled
	case WidgetMenu:
		return widgets.Menu.Enabled
	}
	return false
}

// Settings is the singleton display configuration stored at "settings".
type Settings struct {
	CafeName       string  `json:"cafeName"`
	LogoURL        string  `json:"logoUrl,omitempty"`
	Theme          Theme   `json:"theme"`
	PrimaryColor   string  `json:"primaryColor"`
	SecondaryColor string  `json:"secondaryColor,omitempty"`
	Widgets        Widgets `json:"widgets"`
}

// DefaultSettings is used when nothing is stored and as the base every
// stored document is decoded onto, so missing fields keep these values.
func DefaultSettings() Settings {
	return Settings{
		CafeName:     DefaultCafeName,
		Theme:        ThemeLight,
		PrimaryColor: DefaultPrimaryColor,
		Widgets: Widgets{
			Calendar:     WidgetConfig{Enabled: true},
			Gallery:      GalleryConfig{Enabled: true, Interval: DefaultGalleryInterval},
			Announcement: WidgetConfig{Enabled: true},
			Clock:        ClockConfig{Enabled: true, Format24h: true, ShowDate: true},
			Weather:      WeatherConfig{Enabled: true, City: DefaultCity},
			Menu:         WidgetConfig{Enabled: false},
		},
	}
}

type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

type Photo struct {
	ID        string `json:"id,omitempty"`
	URL       string `json:"url"`
	Caption   string `json:"caption,omitempty"`
	Order     int    `json:"order"`
	CreatedAt int64  `json:"createdAt"`
}

type PhotoPatch struct {
	URL     *string `json:"url,omitempty"`
	Caption *string `json:"caption,omitempty"`
	Order   *int    `json:"order,omitempty"`
}

type Announcement struct {
	ID        string   `json:"id,omitempty"`
	Text      string   `json:"text"`
	Priority  Priority `json:"priority"`
	Active    bool     `json:"active"`
	CreatedAt int64    `json:"createdAt"`
}

type AnnouncementPatch struct {
	Text     *string   `json:"text,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
	Active   *bool     `json:"active,omitempty"`
}

type MenuItem struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Icon        string `json:"icon,omitempty"`
	Available   bool   `json:"available"`
	Order       int    `json:"order"`
	CreatedAt   int64  `json:"createdAt"`
}

type MenuItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Available   *bool   `json:"available,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// User is an admin account. Display screens never authenticate.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	OIDCSubject  *string
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
