package contentstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const refreshTimeout = 10 * time.Second

type subscription struct {
	store    *SQLiteStore
	path     string
	listener Listener

	dirty     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe delivers the current value of path right away and again after
// every committed write that touches it. Deliveries for one subscription are
// sequential and always carry the newest state, so bursts may coalesce.
func (store *SQLiteStore) Subscribe(path string, listener Listener) (Subscription, error) {
	normalized, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		store:    store,
		path:     normalized,
		listener: listener,
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	sub.dirty <- struct{}{}

	store.mu.Lock()
	store.subscriptions[sub] = struct{}{}
	store.mu.Unlock()

	go sub.run()
	return sub, nil
}

func (store *SQLiteStore) dispatch(path string) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for sub := range store.subscriptions {
		if related(sub.path, path) {
			sub.markDirty()
		}
	}
}

func (sub *subscription) markDirty() {
	select {
	case sub.dirty <- struct{}{}:
	default:
	}
}

func (sub *subscription) run() {
	for {
		select {
		case <-sub.done:
			return
		case <-sub.dirty:
		}

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		snapshot, err := sub.store.Get(ctx, sub.path)
		cancel()
		if err != nil {
			slog.Warn("refreshing subscription", "path", sub.path, "error", err)
			continue
		}

		select {
		case <-sub.done:
			return
		default:
		}
		sub.listener(snapshot)
	}
}

func (sub *subscription) Close() {
	sub.closeOnce.Do(func() {
		sub.store.mu.Lock()
		delete(sub.store.subscriptions, sub)
		sub.store.mu.Unlock()
		close(sub.done)
	})
}
