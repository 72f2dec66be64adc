package domain

import "time"

// Task is the server-side record of a chore.
// Independent of transport and storage.
type Task struct {
	ID        int64
	Title     string
	Completed bool
	CreatedAt time.Time
}
