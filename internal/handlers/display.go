package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/display"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/pages"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	maxInbound   = 512
)

type DisplayHandler struct {
	settingsService *services.SettingsService
	sources         display.Sources
	options         display.Options
	upgrader        websocket.Upgrader
}

func NewDisplayHandler(settingsService *services.SettingsService, sources display.Sources, options display.Options) *DisplayHandler {
	return &DisplayHandler{
		settingsService: settingsService,
		sources:         sources,
		options:         options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Page serves the screen shell. Everything inside it is filled in over the
// socket.
func (handler *DisplayHandler) Page(w http.ResponseWriter, r *http.Request) {
	settings := handler.settingsService.Load(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	component := pages.Display(pages.DisplayProps{
		CafeName:       settings.CafeName,
		LogoURL:        settings.LogoURL,
		Dark:           settings.Theme == models.ThemeDark,
		PrimaryColor:   settings.PrimaryColor,
		SecondaryColor: settings.SecondaryColor,
	})
	if err := component.Render(r.Context(), w); err != nil {
		slog.Error("rendering display page", "error", err)
	}
}

// Socket runs one display session for the lifetime of the connection.
func (handler *DisplayHandler) Socket(w http.ResponseWriter, r *http.Request) {
	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrading display socket", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	screen := newSocketScreen(conn)
	session := display.NewSession(screen, handler.sources, handler.options)
	defer session.Close()
	if err := session.Start(ctx); err != nil {
		slog.Error("starting display session", "error", err)
		return
	}
	slog.Info("display connected", "remote", r.RemoteAddr)
	defer slog.Info("display disconnected", "remote", r.RemoteAddr)

	go screen.keepAlive(ctx)

	conn.SetReadLimit(maxInbound)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var message clientMessage
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("reading display socket", "error", err)
			}
			return
		}
		if message.Type == "visibility" {
			session.SetVisible(message.Visible)
		}
	}
}

type clientMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

type screenMessage struct {
	Type    string         `json:"type"`
	Region  display.Region `json:"region,omitempty"`
	HTML    template.HTML  `json:"html,omitempty"`
	Visible *bool          `json:"visible,omitempty"`
	Theme   *display.Theme `json:"theme,omitempty"`
	Name    string         `json:"name,omitempty"`
}

// socketScreen pushes session output to the browser. gorilla/websocket
// allows one concurrent writer, so every write goes through mu.
type socketScreen struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	broken bool
}

func newSocketScreen(conn *websocket.Conn) *socketScreen {
	return &socketScreen{conn: conn}
}

func (screen *socketScreen) Render(region display.Region, html template.HTML) {
	screen.send(screenMessage{Type: "render", Region: region, HTML: html})
}

func (screen *socketScreen) SetVisible(region display.Region, visible bool) {
	screen.send(screenMessage{Type: "visible", Region: region, Visible: &visible})
}

func (screen *socketScreen) ApplyTheme(theme display.Theme) {
	screen.send(screenMessage{Type: "theme", Theme: &theme})
}

func (screen *socketScreen) SetCafeName(name string) {
	screen.send(screenMessage{Type: "cafeName", Name: name})
}

func (screen *socketScreen) send(message screenMessage) {
	screen.mu.Lock()
	defer screen.mu.Unlock()
	if screen.broken {
		return
	}
	screen.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := screen.conn.WriteJSON(message); err != nil {
		slog.Debug("writing display socket", "type", message.Type, "error", err)
		screen.broken = true
		screen.conn.Close()
	}
}

func (screen *socketScreen) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := screen.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
