package testutil

import (
	"context"
	"errors"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
)

var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStore fails every call, standing in for an unreachable backend.
type FailingStore struct{}

func (FailingStore) Get(ctx context.Context, path string) (contentstore.Snapshot, error) {
	return contentstore.Snapshot{}, ErrStoreUnavailable
}

func (FailingStore) Set(ctx context.Context, path string, value any) error {
	return ErrStoreUnavailable
}

func (FailingStore) Update(ctx context.Context, path string, fields map[string]any) error {
	return ErrStoreUnavailable
}

func (FailingStore) Remove(ctx context.Context, path string) error {
	return ErrStoreUnavailable
}

func (FailingStore) Push(ctx context.Context, path string, value any) (string, error) {
	return "", ErrStoreUnavailable
}

func (FailingStore) Subscribe(path string, listener contentstore.Listener) (contentstore.Subscription, error) {
	return nil, ErrStoreUnavailable
}
