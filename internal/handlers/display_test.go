package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/display"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/gorilla/websocket"
)

type stubWeather struct{}

func (stubWeather) FetchCurrent(ctx context.Context, city string) (services.Report, error) {
	return services.Report{Available: true, Temperature: 18, Icon: "☀️", Description: "Açık"}, nil
}

type receivedMessage struct {
	Type    string         `json:"type"`
	Region  string         `json:"region"`
	HTML    string         `json:"html"`
	Visible *bool          `json:"visible"`
	Theme   *display.Theme `json:"theme"`
	Name    string         `json:"name"`
}

func newDisplayServer(t *testing.T) (*fixture, *httptest.Server) {
	t.Helper()
	fixture := newFixture(t)
	handler := NewDisplayHandler(fixture.settings, display.Sources{
		Settings:      fixture.settings,
		Events:        fixture.events,
		Photos:        fixture.photos,
		Announcements: fixture.announcements,
		MenuItems:     fixture.menuItems,
		Weather:       stubWeather{},
	}, display.Options{Location: time.UTC})
	fixture.router.Get("/display", handler.Page)
	fixture.router.Get("/display/ws", handler.Socket)

	server := httptest.NewServer(fixture.router)
	t.Cleanup(server.Close)
	return fixture, server
}

func dialDisplay(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/display/ws", nil)
	if err != nil {
		t.Fatalf("dialing display socket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, what string, match func(receivedMessage) bool) receivedMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var message receivedMessage
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		if match(message) {
			return message
		}
	}
}

func TestDisplayHandler_PageUsesTheme(t *testing.T) {
	fixture, server := newDisplayServer(t)
	fixture.settings.SetField(context.Background(), "theme", "dark")

	response, err := http.Get(server.URL + "/display")
	if err != nil {
		t.Fatalf("fetching display: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", response.StatusCode)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading display: %v", err)
	}
	if !strings.Contains(string(body), `class="dark-theme"`) {
		t.Error("expected the dark theme class")
	}
}

func TestDisplayHandler_SocketStreamsSession(t *testing.T) {
	fixture, server := newDisplayServer(t)
	conn := dialDisplay(t, server)

	theme := readUntil(t, conn, "theme", func(message receivedMessage) bool { return message.Type == "theme" })
	if theme.Theme == nil || theme.Theme.Dark {
		t.Errorf("expected the light default theme, got %+v", theme.Theme)
	}
	readUntil(t, conn, "cafe name", func(message receivedMessage) bool { return message.Type == "cafeName" })
	readUntil(t, conn, "weather", func(message receivedMessage) bool {
		return message.Type == "render" && message.Region == string(display.RegionWeather) && strings.Contains(message.HTML, "18°C")
	})

	fixture.settings.SetField(context.Background(), "cafeName", "Fincan")
	renamed := readUntil(t, conn, "rename", func(message receivedMessage) bool {
		return message.Type == "cafeName" && message.Name == "Fincan"
	})
	if renamed.Name != "Fincan" {
		t.Errorf("unexpected name %q", renamed.Name)
	}
}

func TestDisplayHandler_SocketAcceptsVisibility(t *testing.T) {
	fixture, server := newDisplayServer(t)
	conn := dialDisplay(t, server)
	readUntil(t, conn, "theme", func(message receivedMessage) bool { return message.Type == "theme" })

	for _, visible := range []bool{false, true} {
		payload, _ := json.Marshal(map[string]any{"type": "visibility", "visible": visible})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Fatalf("sending visibility: %v", err)
		}
	}

	fixture.settings.SetField(context.Background(), "theme", "dark")
	readUntil(t, conn, "dark theme", func(message receivedMessage) bool {
		return message.Type == "theme" && message.Theme != nil && message.Theme.Dark
	})
}
