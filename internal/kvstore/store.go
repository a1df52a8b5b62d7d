// Package kvstore holds the key-value durable stores the tracker snapshot is persisted into.
// Every backend stores opaque string values under a string key and overwrites them wholesale.
package kvstore

import (
	"context"
	"errors"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=kvstore

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns ErrNotFound when nothing was stored under the key yet.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
