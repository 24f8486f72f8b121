package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

func newCommandStore() *store.Store {
	n := 0
	return store.New(store.NewMemoryStorage(), store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%02d", n)
	}))
}

func exec(t *testing.T, s *store.Store, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := runCommand(s, args, &out)
	return out.String(), err
}

func TestRunCommand_Scenario(t *testing.T) {
	s := newCommandStore()

	out, err := exec(t, s, "add", "Buy", "milk")
	require.NoError(t, err)
	assert.Equal(t, "id-01\n", out)

	_, err = exec(t, s, "add", "Walk dog")
	require.NoError(t, err)

	out, err = exec(t, s, "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Walk dog")
	assert.Contains(t, lines[1], "Buy milk")
	assert.Equal(t, "2 task(s) left", lines[2])

	_, err = exec(t, s, "done", "id-01")
	require.NoError(t, err)

	out, err = exec(t, s, "ls", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "Walk dog")
	assert.NotContains(t, out, "Buy milk")

	out, err = exec(t, s, "clear")
	require.NoError(t, err)
	assert.Equal(t, "cleared 1 completed task(s)\n", out)

	out, err = exec(t, s, "left")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestRunCommand_EditAndRemove(t *testing.T) {
	s := newCommandStore()
	exec(t, s, "add", "first")
	exec(t, s, "add", "second")

	_, err := exec(t, s, "edit", "id-01", "renamed")
	require.NoError(t, err)
	task, _ := s.Get("id-01")
	assert.Equal(t, "renamed", task.Text)

	// Empty text deletes
	_, err = exec(t, s, "edit", "id-01")
	require.NoError(t, err)
	_, found := s.Get("id-01")
	assert.False(t, found)

	_, err = exec(t, s, "rm", "id-02")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestRunCommand_Errors(t *testing.T) {
	s := newCommandStore()
	exec(t, s, "add", "one")
	exec(t, s, "add", "two")

	cases := [][]string{
		{"add", "   "},
		{"ls", "someday"},
		{"done"},
		{"done", "missing"},
		{"done", "id-0"}, // ambiguous prefix
		{"rm", ""},
		{"frobnicate"},
	}
	for _, args := range cases {
		_, err := exec(t, s, args...)
		assert.Error(t, err, "args %v", args)
	}
	assert.Len(t, s.ListTasks(models.FilterAll), 2)
}

func TestRunCommand_PrefixID(t *testing.T) {
	s := newCommandStore()
	exec(t, s, "add", "only")

	_, err := exec(t, s, "done", "id")
	require.NoError(t, err)
	assert.Equal(t, 0, s.RemainingCount())
}

func TestRunCommand_SuffixID(t *testing.T) {
	s := newCommandStore()
	exec(t, s, "add", "first")
	exec(t, s, "add", "second")

	_, err := exec(t, s, "done", "02")
	require.NoError(t, err)

	task, _ := s.Get("id-02")
	assert.True(t, task.Completed)
	first, _ := s.Get("id-01")
	assert.False(t, first.Completed)
}

func TestRunCommand_ReportsFailedSave(t *testing.T) {
	s := store.New(store.Limit(store.NewMemoryStorage(), 16))

	_, err := exec(t, s, "add", "does not fit")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorageWrite)
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = config.DriverMemory

	storage, closeFn, err := openStorage(cfg)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, storage.Set("k", "v"))
	v, ok, err := storage.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = t.TempDir() + "/todo.db"

	storage, closeFn, err := openStorage(cfg)
	require.NoError(t, err)
	defer closeFn()

	s := store.New(storage)
	s.AddTask("persisted")
	require.NoError(t, s.LastError())
}
