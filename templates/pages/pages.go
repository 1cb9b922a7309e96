// Package pages renders the full HTML documents served to browsers.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
)

//go:embed *.html
var files embed.FS

var parsed = template.Must(template.New("pages").Funcs(template.FuncMap{
	"enabled": func(widgets models.Widgets, name models.WidgetName) bool { return widgets.Enabled(name) },
	"widgetLabel": func(name models.WidgetName) string {
		return widgetLabels[name]
	},
}).ParseFS(files, "*.html"))

var widgetLabels = map[models.WidgetName]string{
	models.WidgetCalendar:     "Etkinlik Takvimi",
	models.WidgetGallery:      "Fotoğraf Galerisi",
	models.WidgetAnnouncement: "Duyurular",
	models.WidgetClock:        "Saat",
	models.WidgetWeather:      "Hava Durumu",
	models.WidgetMenu:         "Menü",
}

// Component is a page ready to be written to a response.
type Component struct {
	name string
	data any
}

func (component Component) Render(ctx context.Context, w io.Writer) error {
	return parsed.ExecuteTemplate(w, component.name, component.data)
}

type DisplayProps struct {
	CafeName       string
	LogoURL        string
	Dark           bool
	PrimaryColor   string
	SecondaryColor string
}

func Display(props DisplayProps) Component {
	return Component{name: "display.html", data: props}
}

type AdminProps struct {
	User          models.User
	Settings      models.Settings
	Cities        []string
	Widgets       []models.WidgetName
	Events        []models.Event
	Photos        []models.Photo
	Announcements []models.Announcement
	MenuItems     []models.MenuItem
}

func Admin(props AdminProps) Component {
	if props.Widgets == nil {
		props.Widgets = models.WidgetNames
	}
	return Component{name: "admin.html", data: props}
}

type LoginProps struct {
	Email       string
	Error       string
	OIDCEnabled bool
}

func Login(props LoginProps) Component {
	return Component{name: "login.html", data: props}
}
