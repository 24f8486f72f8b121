package views

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func newTestView(t *testing.T, texts ...string) (*TaskListView, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemoryStorage())
	for _, text := range texts {
		_, ok := s.AddTask(text)
		require.True(t, ok)
	}
	v := NewTaskListView(s, models.FilterAll)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return v, s
}

func press(v *TaskListView, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = v.Update(msg)
	}
	return cmd
}

func viewTexts(v *TaskListView) []string {
	var out []string
	for _, t := range v.Tasks() {
		out = append(out, t.Text)
	}
	return out
}

func TestTaskListView_AddTask(t *testing.T) {
	v, s := newTestView(t, "Buy milk")

	press(v, runes("n"), runes("Walk dog"), enter)

	assert.Equal(t, []string{"Walk dog", "Buy milk"}, viewTexts(v))
	assert.Equal(t, 2, s.Len())
	assert.False(t, v.editing)
	assert.Equal(t, 0, v.cursor, "cursor follows the new task")
}

func TestTaskListView_AddBlankIsIgnored(t *testing.T) {
	v, s := newTestView(t)

	press(v, runes("n"), runes("   "), enter)

	assert.Equal(t, 0, s.Len())
	assert.False(t, v.editing)
}

func TestTaskListView_TypingQDoesNotQuitWhileEditing(t *testing.T) {
	v, s := newTestView(t)

	press(v, runes("n"), runes("q"))
	assert.True(t, v.editing)
	press(v, enter)

	assert.Equal(t, []string{"q"}, viewTexts(v))
	assert.Equal(t, 1, s.Len())
}

func TestTaskListView_EscCancelsEditing(t *testing.T) {
	v, s := newTestView(t, "keep")

	press(v, runes("e"), runes(" more"), esc)

	task := s.ListTasks(models.FilterAll)[0]
	assert.Equal(t, "keep", task.Text)
	assert.False(t, v.editing)
}

func TestTaskListView_EditTask(t *testing.T) {
	v, s := newTestView(t, "Buy milk")

	press(v, runes("e"), runes(" and eggs"), enter)

	assert.Equal(t, "Buy milk and eggs", s.ListTasks(models.FilterAll)[0].Text)
}

func TestTaskListView_EditWithoutChangesKeepsText(t *testing.T) {
	for _, text := range []string{
		strings.Repeat("x", 600),
		"line one\tcol\nline two",
	} {
		v, s := newTestView(t, text)

		press(v, runes("e"), enter)

		assert.Equal(t, text, s.ListTasks(models.FilterAll)[0].Text)
		assert.False(t, v.editing)
	}
}

func TestTaskListView_EditLongTaskKeepsFullText(t *testing.T) {
	long := strings.Repeat("y", 600)
	v, s := newTestView(t, long)

	press(v, runes("e"), runes("!"), enter)

	assert.Equal(t, long+"!", s.ListTasks(models.FilterAll)[0].Text)
}

func TestTaskListView_EditToEmptyDeletes(t *testing.T) {
	v, s := newTestView(t, "doomed")

	press(v, runes("e"))
	v.input.SetValue("")
	press(v, enter)

	assert.Equal(t, 0, s.Len())
	assert.Contains(t, v.View(), "Task deleted")
}

func TestTaskListView_ToggleAndFilter(t *testing.T) {
	v, s := newTestView(t, "Buy milk", "Walk dog")

	// cursor starts on "Walk dog"; move down to "Buy milk"
	press(v, runes("j"), space)
	assert.Equal(t, 1, s.RemainingCount())

	cmd := press(v, runes("2"))
	require.NotNil(t, cmd)
	assert.Equal(t, FilterChanged{Filter: models.FilterActive}, cmd())
	assert.Equal(t, []string{"Walk dog"}, viewTexts(v))

	press(v, tab)
	assert.Equal(t, models.FilterCompleted, v.Filter())
	assert.Equal(t, []string{"Buy milk"}, viewTexts(v))

	// Re-selecting the current filter emits nothing
	assert.Nil(t, press(v, runes("3")))
}

func TestTaskListView_DeleteNeedsConfirmation(t *testing.T) {
	v, s := newTestView(t, "a", "b")

	press(v, runes("d"), runes("n"))
	assert.Equal(t, 2, s.Len())

	press(v, runes("d"))
	assert.Contains(t, v.View(), "Delete Task?")
	press(v, runes("y"))

	assert.Equal(t, []string{"a"}, viewTexts(v))
}

func TestTaskListView_ClearCompleted(t *testing.T) {
	v, s := newTestView(t, "a", "b", "c")

	press(v, space, runes("j"), runes("j"), space, runes("C"))

	assert.Equal(t, []string{"b"}, viewTexts(v))
	assert.Equal(t, 1, s.Len())
	assert.Contains(t, v.View(), "Cleared 2 completed task(s)")
	assert.Equal(t, 0, v.cursor)
}

func TestTaskListView_ViewShowsCountAndWarning(t *testing.T) {
	s := store.New(store.Limit(store.NewMemoryStorage(), 20))
	s.AddTask("too big for the quota")
	v := NewTaskListView(s, models.FilterAll)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	out := v.View()
	assert.Contains(t, out, "1 task(s) left")
	assert.Contains(t, out, "too big for the quota")
	assert.Contains(t, out, "not being saved")
}

func TestTaskListView_ViewShowsReadFailure(t *testing.T) {
	mem := store.NewMemoryStorage()
	require.NoError(t, mem.Set(store.StorageKey, "not json"))
	s := store.New(mem)
	s.Load()
	v := NewTaskListView(s, models.FilterAll)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	out := v.View()
	assert.Contains(t, out, "saved tasks could not be read")
	assert.NotContains(t, out, "not being saved")
}

func TestTaskListView_EmptyMessages(t *testing.T) {
	v, _ := newTestView(t)
	assert.Contains(t, v.View(), "No tasks")

	press(v, runes("2"))
	assert.Contains(t, v.View(), "Nothing left to do")

	press(v, runes("3"))
	assert.Contains(t, v.View(), "No completed tasks")
}

func TestTaskListView_HelpPopup(t *testing.T) {
	v, _ := newTestView(t, "a")

	press(v, runes("?"))
	assert.Contains(t, v.View(), "Keyboard Shortcuts")

	// Any key closes the popup without acting
	press(v, runes("d"))
	assert.NotContains(t, v.View(), "Keyboard Shortcuts")
	assert.False(t, v.confirmingDelete)
}

func TestTaskListView_LongTextIsTruncated(t *testing.T) {
	long := "this task description is far too long to ever fit on one line of an eighty column terminal window"
	v, _ := newTestView(t, long)

	out := v.View()
	assert.NotContains(t, out, long)
	assert.Contains(t, out, "…")
}

func TestTaskListView_Quit(t *testing.T) {
	v, _ := newTestView(t)

	cmd := press(v, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
