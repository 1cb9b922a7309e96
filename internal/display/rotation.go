package display

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/components"
)

const RotationInterval = 10 * time.Second

// Rotation drives the announcement banner. The banner is hidden while
// there is nothing to announce.
type Rotation struct {
	screen   Screen
	repeater *Repeater

	mu            sync.Mutex
	announcements []models.Announcement
	index         int
}

func NewRotation(screen Screen, c clock.Clock) *Rotation {
	return &Rotation{screen: screen, repeater: NewRepeater(c)}
}

func (rotation *Rotation) SetAnnouncements(announcements []models.Announcement) {
	rotation.mu.Lock()
	defer rotation.mu.Unlock()
	rotation.announcements = announcements
}

// Start draws the banner and rotates only when there are at least two
// announcements.
func (rotation *Rotation) Start() {
	rotation.mu.Lock()
	rotation.renderLocked()
	count := len(rotation.announcements)
	rotation.mu.Unlock()

	if count < 2 {
		rotation.repeater.Stop()
		return
	}
	rotation.repeater.Start(RotationInterval, rotation.advance)
}

// Restart starts again from the first announcement.
func (rotation *Rotation) Restart() {
	rotation.mu.Lock()
	rotation.index = 0
	rotation.mu.Unlock()
	rotation.Start()
}

func (rotation *Rotation) Stop() {
	rotation.repeater.Stop()
}

func (rotation *Rotation) Running() bool {
	return rotation.repeater.Running()
}

func (rotation *Rotation) advance() {
	rotation.mu.Lock()
	defer rotation.mu.Unlock()
	if count := len(rotation.announcements); count > 0 {
		rotation.index = (rotation.index + 1) % count
	}
	rotation.renderLocked()
}

func (rotation *Rotation) renderLocked() {
	count := len(rotation.announcements)
	if count == 0 {
		rotation.screen.SetVisible(RegionAnnouncement, false)
		return
	}
	rotation.index %= count
	rotation.screen.SetVisible(RegionAnnouncement, true)
	rotation.screen.Render(RegionAnnouncement, components.Announcement(rotation.announcements, rotation.index))
}

func (rotation *Rotation) Index() int {
	rotation.mu.Lock()
	defer rotation.mu.Unlock()
	return rotation.index
}

func (rotation *Rotation) Len() int {
	rotation.mu.Lock()
	defer rotation.mu.Unlock()
	return len(rotation.announcements)
}
