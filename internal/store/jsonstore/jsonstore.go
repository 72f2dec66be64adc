package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Makepad-fr/chores/internal/domain"
	"github.com/Makepad-fr/chores/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// One process owns the file; the mutex serializes its requests.

const DefaultFileName = "todos.json"

type record struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

type file struct {
	NextID int64    `json:"next_id"`
	Tasks  []record `json:"tasks"`
}

type Store struct {
	mu   sync.Mutex
	path string
	data file
	now  func() time.Time
}

// Open loads path, or starts empty when it does not exist yet.
func Open(path string) (*Store, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, DefaultFileName)
	}
	s := &Store{path: path, data: file{NextID: 1}, now: time.Now}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	for _, r := range s.data.Tasks {
		if r.ID >= s.data.NextID {
			s.data.NextID = r.ID + 1
		}
	}
	return s, nil
}

func (s *Store) save() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Store) List(context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.data.Tasks))
	for _, r := range s.data.Tasks {
		out = append(out, toDomain(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, title string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := record{ID: s.data.NextID, Title: title, CreatedAt: s.now().UTC()}
	s.data.NextID++
	s.data.Tasks = append(s.data.Tasks, r)
	if err := s.save(); err != nil {
		s.data.Tasks = s.data.Tasks[:len(s.data.Tasks)-1]
		s.data.NextID--
		return domain.Task{}, err
	}
	return toDomain(r), nil
}

func (s *Store) Get(_ context.Context, id int64) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return domain.Task{}, store.ErrNotFound
	}
	return toDomain(s.data.Tasks[i]), nil
}

func (s *Store) SetCompleted(_ context.Context, id int64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	prev := s.data.Tasks[i].Completed
	s.data.Tasks[i].Completed = completed
	if err := s.save(); err != nil {
		s.data.Tasks[i].Completed = prev
		return err
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil
	}
	prev := append([]record(nil), s.data.Tasks...)
	s.data.Tasks = append(s.data.Tasks[:i], s.data.Tasks[i+1:]...)
	if err := s.save(); err != nil {
		s.data.Tasks = prev
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) index(id int64) int {
	for i, r := range s.data.Tasks {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func toDomain(r record) domain.Task {
	return domain.Task{ID: r.ID, Title: r.Title, Completed: r.Completed, CreatedAt: r.CreatedAt}
}

var _ store.Store = (*Store)(nil)
