package contentstore

import (
	"context"

	"github.com/google/uuid"
)

// Listener receives the current value of a subscribed path.
type Listener func(Snapshot)

// Subscription is the handle returned by Subscribe. Close stops delivery and
// may be called more than once.
type Subscription interface {
	Close()
}

// Store is a hierarchical key-value tree addressed by slash separated paths.
// Writes are last-write-wins; Update applies all of its locations atomically.
type Store interface {
	Get(ctx context.Context, path string) (Snapshot, error)
	Set(ctx context.Context, path string, value any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error
	Push(ctx context.Context, path string, value any) (string, error)
	Subscribe(path string, listener Listener) (Subscription, error)
}

// NewPushKey returns a unique, time ordered child key.
func NewPushKey() string {
	key, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return key.String()
}
