package kvstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/2beens/dailyfit/internal/telemetry/tracing"
	"github.com/2beens/dailyfit/pkg"

	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps every key in its own file under rootDir.
// Writes go to a temp file first and are renamed over the old one, so a crash
// mid-write never leaves a half written value behind.
type FileStore struct {
	rootDir string
	mutex   sync.Mutex
}

func NewFileStore(rootDir string) (*FileStore, error) {
	if rootDir == "" {
		return nil, errors.New("file store root dir empty")
	}
	if err := pkg.EnsureDir(rootDir); err != nil {
		return nil, fmt.Errorf("ensure root dir [%s]: %w", rootDir, err)
	}
	return &FileStore{
		rootDir: rootDir,
	}, nil
}

func (s *FileStore) keyPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	return filepath.Join(s.rootDir, url.PathEscape(key)+".json"), nil
}

func (s *FileStore) Get(ctx context.Context, key string) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "kvstore.file.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	path, err := s.keyPath(key)
	if err != nil {
		return "", err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read [%s]: %w", path, err)
	}
	return string(content), nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "kvstore.file.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))
	span.SetAttributes(attribute.Int("size", len(value)))

	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tmpFile, err := os.CreateTemp(s.rootDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmpFile.WriteString(value); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
