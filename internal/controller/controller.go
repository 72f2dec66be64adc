// Package controller keeps a canonical, in-memory projection of the chore
// list and drives the server calls that change it.
//
// Every change to the collection goes through Controller.update, so any view
// can be re-rendered from a Snapshot at any time. Actions on the same task id
// are serialized; actions on different ids run concurrently.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/page"
)

var (
	// ErrEmptyTitle means the title was blank; nothing was sent.
	ErrEmptyTitle = errors.New("empty title")
	// ErrUnknownTask means the id is not (or no longer) in the collection.
	ErrUnknownTask = errors.New("unknown task")
	// ErrNotInitialized is returned by Submit before Initialize succeeded.
	ErrNotInitialized = errors.New("controller not initialized")
)

// Backend is the chore server as seen by the controller.
type Backend interface {
	Page(ctx context.Context) (*page.Document, error)
	List(ctx context.Context) ([]model.Task, error)
	Add(ctx context.Context, action, title string) (model.Task, error)
	Toggle(ctx context.Context, id model.TaskID) (bool, error)
	Delete(ctx context.Context, id model.TaskID) error
}

// Input is the raw content of the add form.
type Input struct {
	Title string
	Date  string // HTML date value, extended form only
	Time  string // HTML time value, extended form only
}

// State is an immutable copy of the collection.
type State struct {
	Tasks   []model.Task
	Variant page.Variant
}

// Empty reports whether the placeholder should be shown.
func (s State) Empty() bool { return len(s.Tasks) == 0 }

// Stats counts completed and pending tasks.
func (s State) Stats() (done, pending int) {
	for _, t := range s.Tasks {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

type collection struct {
	// gen counts updates; Refresh uses it to detect changes made while
	// its listing was in flight.
	gen     uint64
	ready   bool
	noInput bool
	action  string
	variant page.Variant
	tasks   []model.Task
}

type Controller struct {
	backend  Backend
	log      *log.Logger
	titles   TitleComposer
	locks    *keyedMutex
	onChange func(State)

	mu  sync.Mutex
	col collection
}

type Option func(*Controller)

// WithLogger sets the diagnostic log. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithLocale sets the locale used to format dates in composed titles.
func WithLocale(locale string) Option {
	return func(c *Controller) { c.titles = NewTitleComposer(locale) }
}

// OnChange registers fn to receive every new state, in order. fn runs while
// the collection is locked and must not call back into the Controller.
func OnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

func New(b Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: b,
		log:     log.Default(),
		titles:  NewTitleComposer("en-US"),
		locks:   newKeyedMutex(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize binds the controller to the served page: its add form and task
// list. A page without them is a fatal startup error.
func (c *Controller) Initialize(ctx context.Context) error {
	doc, err := c.backend.Page(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	c.update(func(col *collection) {
		col.ready = true
		col.noInput = doc.NoTitleInput
		col.action = doc.Action
		col.variant = doc.Variant
		col.tasks = append([]model.Task(nil), doc.Tasks...)
	})
	return nil
}

// refreshAttempts bounds how often Refresh refetches when other actions keep
// landing while the listing is in flight.
const refreshAttempts = 3

// Refresh replaces the collection with the server's current listing. A listing
// that was requested before another change landed is stale and is refetched;
// if changes keep landing, the newer local state is kept.
func (c *Controller) Refresh(ctx context.Context) error {
	for i := 0; i < refreshAttempts; i++ {
		c.mu.Lock()
		gen := c.col.gen
		c.mu.Unlock()

		tasks, err := c.backend.List(ctx)
		if err != nil {
			c.log.Printf("refresh: %v", err)
			return err
		}
		if c.updateAt(gen, func(col *collection) { col.tasks = tasks }) {
			return nil
		}
	}
	c.log.Printf("refresh: collection kept changing, keeping local state")
	return nil
}

// Submit sends a new task and prepends the server's copy of it. A blank title
// returns ErrEmptyTitle without touching the network or the collection.
func (c *Controller) Submit(ctx context.Context, in Input) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, ErrEmptyTitle
	}
	c.mu.Lock()
	ready, noInput, action, variant := c.col.ready, c.col.noInput, c.col.action, c.col.variant
	c.mu.Unlock()
	if !ready {
		return model.Task{}, ErrNotInitialized
	}
	if noInput {
		err := fmt.Errorf("submit: %w: #title", page.ErrMissingElement)
		c.log.Print(err)
		return model.Task{}, err
	}

	title := strings.TrimSpace(in.Title)
	if variant == page.Extended {
		title = c.titles.Compose(in)
	}
	task, err := c.backend.Add(ctx, action, title)
	if err != nil {
		c.log.Printf("submit %q: %v", title, err)
		return model.Task{}, err
	}
	c.update(func(col *collection) {
		col.tasks = append([]model.Task{task}, col.tasks...)
	})
	return task, nil
}

// Toggle flips id server-side and records the completion state the server
// reports. Nothing changes locally on failure.
func (c *Controller) Toggle(ctx context.Context, id model.TaskID) (bool, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	if !c.has(id) {
		err := fmt.Errorf("toggle %s: %w", id, ErrUnknownTask)
		c.log.Print(err)
		return false, err
	}
	done, err := c.backend.Toggle(ctx, id)
	if err != nil {
		c.log.Printf("toggle %s: %v", id, err)
		return false, err
	}
	c.update(func(col *collection) {
		for i := range col.tasks {
			if col.tasks[i].ID == id {
				col.tasks[i].Completed = model.Flag(done)
			}
		}
	})
	return done, nil
}

// Delete removes id server-side, then locally. Nothing changes locally on
// failure.
func (c *Controller) Delete(ctx context.Context, id model.TaskID) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	if !c.has(id) {
		err := fmt.Errorf("delete %s: %w", id, ErrUnknownTask)
		c.log.Print(err)
		return err
	}
	if err := c.backend.Delete(ctx, id); err != nil {
		c.log.Printf("delete %s: %v", id, err)
		return err
	}
	c.update(func(col *collection) {
		kept := col.tasks[:0]
		for _, t := range col.tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		col.tasks = kept
	})
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// RenderList writes the #task-list projection of the current state.
func (c *Controller) RenderList(w io.Writer) error {
	return page.RenderList(w, c.Snapshot().Tasks)
}

// update is the only place the collection changes.
func (c *Controller) update(mutate func(*collection)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked(mutate)
}

// updateAt applies mutate only if no update happened since gen was read.
func (c *Controller) updateAt(gen uint64, mutate func(*collection)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.col.gen != gen {
		return false
	}
	c.applyLocked(mutate)
	return true
}

func (c *Controller) applyLocked(mutate func(*collection)) {
	mutate(&c.col)
	c.col.gen++
	if c.onChange != nil {
		c.onChange(c.snapshotLocked())
	}
}

func (c *Controller) snapshotLocked() State {
	return State{
		Tasks:   append([]model.Task(nil), c.col.tasks...),
		Variant: c.col.variant,
	}
}

func (c *Controller) has(id model.TaskID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.col.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
