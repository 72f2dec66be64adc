package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Makepad-fr/chores/internal/domain"
	"github.com/Makepad-fr/chores/internal/store"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrTitleRequired = errors.New("title is required")
)

// ListCache is the optional read-through cache for the listing.
type ListCache interface {
	GetList(ctx context.Context) ([]domain.Task, error)
	SetList(ctx context.Context, list []domain.Task) error
	Invalidate(ctx context.Context) error
}

type TaskService struct {
	store store.Store
	cache ListCache
	log   *log.Logger
	sf    singleflight.Group
	// toggles are read-modify-write
	toggleMu sync.Mutex
	// writes counts committed writes; a listing read across a write is stale.
	writes atomic.Uint64
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(s store.Store, c ListCache, l *log.Logger) *TaskService {
	if l == nil {
		l = log.Default()
	}
	return &TaskService{store: s, cache: c, log: l}
}

func (s *TaskService) List(ctx context.Context) ([]domain.Task, error) {
	if s.cache == nil {
		return s.store.List(ctx)
	}
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		if list, err := s.cache.GetList(ctx); err == nil && list != nil {
			return list, nil
		} else if err != nil {
			s.log.Printf("cache get: %v", err)
		}
		seen := s.writes.Load()
		list, err := s.store.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, list); err != nil {
			s.log.Printf("cache set: %v", err)
		}
		// A write that committed after the read may have invalidated before
		// SetList ran; drop the stale listing instead of serving it for a TTL.
		if s.writes.Load() != seen {
			s.invalidateCache(ctx)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Task), nil
}

func (s *TaskService) Create(ctx context.Context, title string) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, ErrTitleRequired
	}
	t, err := s.store.Create(ctx, title)
	if err != nil {
		return domain.Task{}, err
	}
	s.committed(ctx)
	return t, nil
}

// Toggle flips the completion flag and returns the updated task.
func (s *TaskService) Toggle(ctx context.Context, id int64) (domain.Task, error) {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Task{}, mapErr(err)
	}
	t.Completed = !t.Completed
	if err := s.store.SetCompleted(ctx, id, t.Completed); err != nil {
		return domain.Task{}, mapErr(err)
	}
	s.committed(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.committed(ctx)
	return nil
}

// committed records a write, then drops the cached listing.
func (s *TaskService) committed(ctx context.Context) {
	s.writes.Add(1)
	s.invalidateCache(ctx)
}

func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Printf("cache invalidate: %v", err)
	}
}

func mapErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("store: %w", err)
}
