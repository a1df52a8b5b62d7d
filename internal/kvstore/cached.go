package kvstore

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Store = (*CachedStore)(nil)

// CachedStore is a read-through/write-through freecache layer in front of a slower backend.
type CachedStore struct {
	next       Store
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCachedStore(next Store, cacheSizeMegabytes, ttlSeconds int) *CachedStore {
	megabyte := 1024 * 1024
	return &CachedStore{
		next:       next,
		cache:      freecache.NewCache(cacheSizeMegabytes * megabyte),
		ttlSeconds: ttlSeconds,
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) (string, error) {
	if cached, err := s.cache.Get([]byte(key)); err == nil {
		log.Tracef("kvstore cache hit: %s", key)
		return string(cached), nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Warnf("kvstore cache get [%s]: %s", key, err)
	}

	value, err := s.next.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set([]byte(key), []byte(value), s.ttlSeconds); err != nil {
		log.Warnf("kvstore cache set [%s]: %s", key, err)
	}
	return value, nil
}

func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		// whatever is cached might not match the backend anymore
		s.cache.Del([]byte(key))
		return err
	}

	if err := s.cache.Set([]byte(key), []byte(value), s.ttlSeconds); err != nil {
		log.Warnf("kvstore cache set [%s]: %s", key, err)
		s.cache.Del([]byte(key))
	}
	return nil
}
