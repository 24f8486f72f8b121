// Package store owns the canonical in-memory task list and mirrors it to a
// key/value Storage after every mutation.
//
// Persistence is best-effort: read and write failures are logged and kept
// for LastError, but never returned from the task operations. The in-memory
// list is always the source of truth for the caller.
//
// A Store is not safe for concurrent use. Callers serialize operations, the
// way a UI event loop does.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgienger/todo/internal/models"
)

// StorageKey is where the task list lives. Bump the version suffix when the
// record shape changes incompatibly; data under the old key is abandoned.
const StorageKey = "todo_tasks_v1"

var (
	// ErrStorageRead marks a persisted value that could not be read or decoded
	ErrStorageRead = errors.New("storage read failure")
	// ErrStorageWrite marks a rejected write (quota, closed database, ...)
	ErrStorageWrite = errors.New("storage write failure")
)

// Store holds the ordered task list, newest first
type Store struct {
	storage Storage
	log     *zap.Logger
	now     func() time.Time
	newID   func() string

	tasks   []models.Task
	lastErr error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger used for persistence diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithClock overrides the source of CreatedAt timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how task ids are minted
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates an empty store backed by storage. Call Load to read persisted tasks.
func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   newTaskID,
		tasks:   []models.Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTaskID returns a UUIDv7: a millisecond timestamp followed by random bits
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Load replaces the in-memory list with the persisted one. An absent key
// yields an empty list. An unreadable or malformed value also yields an empty
// list and is logged. Load never writes back to storage.
func (s *Store) Load() {
	s.tasks = []models.Task{}
	s.lastErr = nil

	raw, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		s.fail("failed to load tasks", fmt.Errorf("%w: get %s: %w", ErrStorageRead, StorageKey, err))
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}

	var records []models.Task
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.fail("failed to load tasks", fmt.Errorf("%w: decode %s: %w", ErrStorageRead, StorageKey, err))
		return
	}
	s.tasks = s.sanitize(records)
	s.log.Debug("tasks loaded", zap.Int("count", len(s.tasks)))
}

// sanitize drops records that would break the list invariants: a missing id,
// blank text, or an id already seen.
func (s *Store) sanitize(records []models.Task) []models.Task {
	tasks := make([]models.Task, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, t := range records {
		t.Text = strings.TrimSpace(t.Text)
		if t.ID == "" || t.Text == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	if dropped := len(records) - len(tasks); dropped > 0 {
		s.log.Warn("dropped invalid task records",
			zap.String("key", StorageKey),
			zap.Int("dropped", dropped),
		)
	}
	return tasks
}

// Save writes the whole list to storage, overwriting the previous value.
// A failed write is logged and leaves the in-memory list untouched.
func (s *Store) Save() {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		s.fail("failed to save tasks", fmt.Errorf("%w: encode: %w", ErrStorageWrite, err))
		return
	}
	if err := s.storage.Set(StorageKey, string(data)); err != nil {
		s.fail("failed to save tasks", fmt.Errorf("%w: set %s: %w", ErrStorageWrite, StorageKey, err))
		return
	}
	s.lastErr = nil
}

func (s *Store) fail(msg string, err error) {
	s.lastErr = err
	s.log.Error(msg, zap.String("key", StorageKey), zap.Error(err))
}

// LastError returns the failure from the most recent Load or Save, or nil
// if it succeeded.
func (s *Store) LastError() error {
	return s.lastErr
}

// AddTask prepends a new task with the trimmed text. Blank text is ignored
// and reported with ok == false.
func (s *Store) AddTask(text string) (task models.Task, ok bool) {
	text = cleanText(text)
	if text == "" {
		return models.Task{}, false
	}

	task = models.Task{
		ID:        s.uniqueID(),
		Text:      text,
		Completed: false,
		// Millisecond precision in UTC, the same shape a browser's toISOString stores
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	s.tasks = append([]models.Task{task}, s.tasks...)
	s.Save()
	return task, true
}

// cleanText trims the text and replaces invalid UTF-8, which JSON cannot carry
// and would otherwise come back from storage different from what is in memory.
func cleanText(text string) string {
	return strings.TrimSpace(strings.ToValidUTF8(text, "\uFFFD"))
}

func (s *Store) uniqueID() string {
	for i := 0; i < 8; i++ {
		if id := s.newID(); id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
	for {
		if id := newTaskID(); s.indexOf(id) < 0 {
			return id
		}
	}
}

// ToggleComplete flips the completed flag. It reports false if no task has the id.
func (s *Store) ToggleComplete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.notFound("toggle", id)
		return false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.Save()
	return true
}

// EditTask replaces the task's text with the trimmed newText. Blank text
// deletes the task instead. It reports false if no task has the id.
func (s *Store) EditTask(id, newText string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.notFound("edit", id)
		return false
	}
	newText = cleanText(newText)
	if newText == "" {
		return s.DeleteTask(id)
	}
	s.tasks[i].Text = newText
	s.Save()
	return true
}

// DeleteTask removes the task. It reports false if no task has the id.
func (s *Store) DeleteTask(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.notFound("delete", id)
		return false
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.Save()
	return true
}

// ClearCompleted removes every completed task, keeping the relative order of
// the rest, and returns how many were removed. The list is saved even when
// nothing was removed.
func (s *Store) ClearCompleted() int {
	kept := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	s.Save()
	return removed
}

// ListTasks returns a copy of the tasks matching filter, newest first
func (s *Store) ListTasks(filter models.Filter) []models.Task {
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// RemainingCount returns the number of tasks not yet completed
func (s *Store) RemainingCount() int {
	n := 0
	for _, t := range s.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Len returns the total number of tasks
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns a copy of the task with the given id
func (s *Store) Get(id string) (models.Task, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return models.Task{}, false
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// A missing id is expected when the UI is stale; it is not an error.
func (s *Store) notFound(op, id string) {
	s.log.Debug("task not found", zap.String("op", op), zap.String("id", id))
}
