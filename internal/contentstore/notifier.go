package contentstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Notifier carries the paths of committed writes to every listening store.
type Notifier interface {
	Publish(ctx context.Context, path string) error
	Listen(ctx context.Context) (<-chan string, error)
}

const changeBuffer = 64

type localListener struct {
	changes chan string
	done    <-chan struct{}
}

// LocalNotifier delivers changes inside one process.
type LocalNotifier struct {
	mu        sync.Mutex
	listeners map[*localListener]struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[*localListener]struct{})}
}

func (notifier *LocalNotifier) Publish(ctx context.Context, path string) error {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()

	for listener := range notifier.listeners {
		select {
		case listener.changes <- path:
		case <-listener.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (notifier *LocalNotifier) Listen(ctx context.Context) (<-chan string, error) {
	listener := &localListener{changes: make(chan string, changeBuffer), done: ctx.Done()}

	notifier.mu.Lock()
	notifier.listeners[listener] = struct{}{}
	notifier.mu.Unlock()

	go func() {
		<-ctx.Done()
		notifier.mu.Lock()
		delete(notifier.listeners, listener)
		notifier.mu.Unlock()
		close(listener.changes)
	}()
	return listener.changes, nil
}

// RedisNotifier publishes changes on a Redis channel so that every process
// sharing the database sees writes made by the others.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (notifier *RedisNotifier) Publish(ctx context.Context, path string) error {
	if err := notifier.client.Publish(ctx, notifier.channel, path).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", notifier.channel, err)
	}
	return nil
}

func (notifier *RedisNotifier) Listen(ctx context.Context) (<-chan string, error) {
	pubsub := notifier.client.Subscribe(ctx, notifier.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", notifier.channel, err)
	}

	changes := make(chan string, changeBuffer)
	go func() {
		defer close(changes)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}
				select {
				case changes <- message.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return changes, nil
}
