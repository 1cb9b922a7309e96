package display

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Repeater runs one function on a fixed interval. Starting it again
// replaces the running loop, so there is never more than one. A tick must
// not call Start or Stop on its own repeater.
type Repeater struct {
	clock clock.Clock

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewRepeater(c clock.Clock) *Repeater {
	if c == nil {
		c = clock.New()
	}
	return &Repeater{clock: c}
}

func (repeater *Repeater) Start(interval time.Duration, tick func()) {
	repeater.mu.Lock()
	defer repeater.mu.Unlock()

	repeater.stopLocked()
	stop := make(chan struct{})
	done := make(chan struct{})
	ticker := repeater.clock.Ticker(interval)
	repeater.stop = stop
	repeater.done = done

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				tick()
			}
		}
	}()
}

// Stop returns once the loop has exited, so no tick runs after it.
func (repeater *Repeater) Stop() {
	repeater.mu.Lock()
	defer repeater.mu.Unlock()
	repeater.stopLocked()
}

func (repeater *Repeater) Running() bool {
	repeater.mu.Lock()
	defer repeater.mu.Unlock()
	return repeater.stop != nil
}

func (repeater *Repeater) stopLocked() {
	if repeater.stop == nil {
		return
	}
	close(repeater.stop)
	<-repeater.done
	repeater.stop = nil
	repeater.done = nil
}
