// Package store declares the persistence contract of the chore server.
// Implementations live in subpackages: jsonstore (single file) and sqlstore
// (sqlite, mysql, postgres).
package store

import (
	"context"
	"errors"

	"github.com/Makepad-fr/chores/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Store keeps tasks. List returns newest first.
type Store interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, title string) (domain.Task, error)
	Get(ctx context.Context, id int64) (domain.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) error
	// Delete is idempotent: a missing id is not an error.
	Delete(ctx context.Context, id int64) error
	Close() error
}
