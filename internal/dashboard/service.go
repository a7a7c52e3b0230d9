package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces a fresh snapshot.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Service coordinates snapshot loading with the cache layer.
type Service struct {
	loader Loader
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group

	loadTimeout time.Duration
}

// DefaultLoadTimeout bounds a shared snapshot load once it is detached from its callers.
const DefaultLoadTimeout = 30 * time.Second

// NewService wires a Loader with a Cache helper. cache may be nil.
func NewService(loader Loader, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loader: loader, cache: cache, logger: logger, loadTimeout: DefaultLoadTimeout}
}

// WithLoadTimeout overrides how long a shared load may run.
func (s *Service) WithLoadTimeout(d time.Duration) {
	if d > 0 {
		s.loadTimeout = d
	}
}

// Page loads the dashboard and resolves its final state.
func (s *Service) Page(ctx context.Context) Page {
	snapshot, err := s.Snapshot(ctx)
	return Resolve(snapshot, err)
}

// Snapshot returns the cached snapshot or loads one. Concurrent callers share a load.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	key, err := s.cache.BuildKey(ctx, snapshotKey)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return s.singleflight(ctx, snapshotKey, s.load)
	}

	var cached Snapshot
	switch err := s.cache.Get(ctx, key, &cached); {
	case err == nil:
		recordCacheHit()
		return &cached, nil
	case errors.Is(err, ErrCacheMiss):
	default:
		s.logger.Warn("dashboard cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	recordCacheMiss()

	return s.singleflight(ctx, key, func(ctx context.Context) (*Snapshot, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, snap)
		return snap, nil
	})
}

// Refresh loads a fresh snapshot and stores it under the current cache version.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	key, err := s.cache.BuildKey(ctx, snapshotKey)
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return snap, nil
	}
	s.store(ctx, key, snap)
	return snap, nil
}

// Invalidate drops every cached snapshot by bumping the cache version.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	started := time.Now()
	snap, err := s.loader.Load(ctx)
	observeLoadDuration(err, time.Since(started))
	return snap, err
}

func (s *Service) store(ctx context.Context, key string, snap *Snapshot) {
	if err := s.cache.Set(ctx, key, snap); err != nil {
		s.logger.Warn("dashboard cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// singleflight shares one load per key. The load outlives any single caller so a
// cancelled request only abandons its own wait.
func (s *Service) singleflight(ctx context.Context, key string, fn func(context.Context) (*Snapshot, error)) (*Snapshot, error) {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		return fn(loadCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}
