package display

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/components"
)

const defaultSlideInterval = models.DefaultGalleryInterval * time.Second

// Slideshow cycles through the gallery photos.
type Slideshow struct {
	screen   Screen
	repeater *Repeater

	mu       sync.Mutex
	photos   []models.Photo
	index    int
	interval time.Duration
}

func NewSlideshow(screen Screen, c clock.Clock) *Slideshow {
	return &Slideshow{screen: screen, repeater: NewRepeater(c), interval: defaultSlideInterval}
}

// SetPhotos replaces the sequence. The index is kept and wrapped on the
// next draw.
func (slideshow *Slideshow) SetPhotos(photos []models.Photo) {
	slideshow.mu.Lock()
	defer slideshow.mu.Unlock()
	slideshow.photos = photos
}

// Start draws the current slide and advances every interval. A
// non-positive interval reuses the previous one.
func (slideshow *Slideshow) Start(interval time.Duration) {
	slideshow.mu.Lock()
	if interval > 0 {
		slideshow.interval = interval
	}
	interval = slideshow.interval
	slideshow.renderLocked()
	slideshow.mu.Unlock()

	slideshow.repeater.Start(interval, slideshow.Next)
}

// Restart starts again from the first photo.
func (slideshow *Slideshow) Restart(interval time.Duration) {
	slideshow.mu.Lock()
	slideshow.index = 0
	slideshow.mu.Unlock()
	slideshow.Start(interval)
}

func (slideshow *Slideshow) Stop() {
	slideshow.repeater.Stop()
}

func (slideshow *Slideshow) Running() bool {
	return slideshow.repeater.Running()
}

// Next advances one photo; with no photos it does nothing.
func (slideshow *Slideshow) Next() {
	slideshow.step(1)
}

func (slideshow *Slideshow) Prev() {
	slideshow.step(-1)
}

func (slideshow *Slideshow) step(delta int) {
	slideshow.mu.Lock()
	defer slideshow.mu.Unlock()
	count := len(slideshow.photos)
	if count == 0 {
		return
	}
	slideshow.index = ((slideshow.index+delta)%count + count) % count
	slideshow.renderLocked()
}

// Render draws the current slide, or the empty state.
func (slideshow *Slideshow) Render() {
	slideshow.mu.Lock()
	defer slideshow.mu.Unlock()
	slideshow.renderLocked()
}

func (slideshow *Slideshow) renderLocked() {
	if count := len(slideshow.photos); count > 0 {
		slideshow.index %= count
	}
	slideshow.screen.Render(RegionGallery, components.Gallery(slideshow.photos, slideshow.index))
}

func (slideshow *Slideshow) Index() int {
	slideshow.mu.Lock()
	defer slideshow.mu.Unlock()
	return slideshow.index
}

func (slideshow *Slideshow) Len() int {
	slideshow.mu.Lock()
	defer slideshow.mu.Unlock()
	return len(slideshow.photos)
}
