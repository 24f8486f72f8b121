package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// dateLayout is how createdAt is shown next to each task
const dateLayout = "Jan 2 15:04"

// FilterChanged is emitted whenever the user switches filter
type FilterChanged struct {
	Filter models.Filter
}

// TaskListView shows the tasks of one store through a filter
type TaskListView struct {
	store  *store.Store
	filter models.Filter
	tasks  []models.Task // filtered snapshot, refreshed after every operation
	styles *styles.Styles
	keys   keys.KeyMap
	help   help.Model

	width  int
	height int

	cursor  int
	scrollY int

	// Task creation/editing
	editing   bool
	editingID string // empty while creating a new task
	editStart string // input value when editing began
	input     textinput.Model

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetText string

	// Feedback for the last action, cleared on the next key
	status string

	showHelpPopup bool
}

// NewTaskListView creates a task list view showing filter
func NewTaskListView(s *store.Store, filter models.Filter) *TaskListView {
	input := textinput.New()
	input.Placeholder = "What needs to be done?"
	input.CharLimit = 0

	v := &TaskListView{
		store:  s,
		filter: filter,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
		input:  input,
	}
	v.refresh()
	return v
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// Filter returns the active filter
func (v *TaskListView) Filter() models.Filter {
	return v.filter
}

// Tasks returns the tasks currently on screen
func (v *TaskListView) Tasks() []models.Task {
	return v.tasks
}

// refresh re-reads the filtered list and keeps the cursor in range
func (v *TaskListView) refresh() {
	v.tasks = v.store.ListTasks(v.filter)
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) setFilter(f models.Filter) tea.Cmd {
	if f == v.filter {
		return nil
	}
	v.filter = f
	v.cursor = 0
	v.scrollY = 0
	v.refresh()
	return func() tea.Msg { return FilterChanged{Filter: f} }
}

func (v *TaskListView) selected() (models.Task, bool) {
	if len(v.tasks) == 0 {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		v.input.Width = clamp(contentWidth-8, 10, 70)
		v.help.Width = contentWidth
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		// Help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.status = ""

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		return v, v.startNewTask()

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selected(); ok {
			return v, v.startEditTask(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if task, ok := v.selected(); ok {
			v.store.ToggleComplete(task.ID)
			v.refresh()
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetText = task.Text
		}
		return v, nil

	case key.Matches(msg, v.keys.ClearCompleted):
		n := v.store.ClearCompleted()
		v.status = fmt.Sprintf("Cleared %d completed task(s)", n)
		v.refresh()
		return v, nil

	case key.Matches(msg, v.keys.Filter):
		return v, v.setFilter(v.filter.Next())

	case key.Matches(msg, v.keys.FilterAll):
		return v, v.setFilter(models.FilterAll)

	case key.Matches(msg, v.keys.FilterActive):
		return v, v.setFilter(models.FilterActive)

	case key.Matches(msg, v.keys.FilterDone):
		return v, v.setFilter(models.FilterCompleted)

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.store.DeleteTask(v.deleteTargetID)
		v.confirmingDelete = false
		v.refresh()
		return v, nil
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.stopEditing()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		v.saveTask()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *TaskListView) startNewTask() tea.Cmd {
	v.editing = true
	v.editingID = ""
	v.input.Reset()
	return tea.Batch(v.input.Focus(), textinput.Blink)
}

func (v *TaskListView) startEditTask(task models.Task) tea.Cmd {
	v.editing = true
	v.editingID = task.ID
	v.input.SetValue(task.Text)
	v.input.CursorEnd()
	// SetValue flattens tabs and newlines, so compare against what the input holds
	v.editStart = v.input.Value()
	return tea.Batch(v.input.Focus(), textinput.Blink)
}

func (v *TaskListView) stopEditing() {
	v.editing = false
	v.editingID = ""
	v.editStart = ""
	v.input.Blur()
	v.input.Reset()
}

// saveTask commits the input. Clearing an existing task's text deletes it.
func (v *TaskListView) saveTask() {
	text := v.input.Value()

	if v.editingID == "" {
		if task, ok := v.store.AddTask(text); ok {
			v.refresh()
			v.moveCursorTo(task.ID)
		}
	} else if text != v.editStart {
		if strings.TrimSpace(text) == "" {
			v.status = "Task deleted"
		}
		v.store.EditTask(v.editingID, text)
		v.refresh()
	}

	v.stopEditing()
}

func (v *TaskListView) moveCursorTo(id string) {
	for i, t := range v.tasks {
		if t.ID == id {
			v.cursor = i
			v.ensureVisible()
			return
		}
	}
}

func (v *TaskListView) visibleItems() int {
	// Header, tabs, input and footer take roughly 12 lines
	return max(v.height-12, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	if v.editing {
		b.WriteString(v.renderInput())
		b.WriteString("\n")
	}

	b.WriteString(v.renderTaskList())
	b.WriteString("\n\n")
	b.WriteString(v.renderStatus())
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(v.help.View(v.keys)))

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	var tabs []string
	for _, f := range models.Filters {
		style := s.FilterTab
		if f == v.filter {
			style = s.FilterTabActive
		}
		tabs = append(tabs, style.Render(f.Label()))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Todo"),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func (v *TaskListView) renderInput() string {
	label := "New task"
	if v.editingID != "" {
		label = "Edit task (empty deletes)"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.TitleMuted.Render(label),
		v.styles.InputFocused.Render(v.input.View()),
	)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		switch v.filter {
		case models.FilterActive:
			return s.TitleMuted.Render("Nothing left to do.")
		case models.FilterCompleted:
			return s.TitleMuted.Render("No completed tasks.")
		default:
			return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
		}
	}

	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))

	var items []string
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && !v.editing))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 30)

	check := "[ ]"
	textStyle := s.TaskText
	if task.Completed {
		check = s.TaskCheck.Render("[x]")
		textStyle = s.TaskCompleted
	}

	date := task.CreatedAt.Local().Format(dateLayout)

	// checkbox, spaces and date eat into the text column
	textWidth := max(width-lipgloss.Width(date)-10, 8)
	text := truncate.StringWithTail(task.Text, uint(textWidth), "…")
	text = lipgloss.NewStyle().Width(textWidth).Render(textStyle.Render(text))

	line := check + " " + text + "  " + s.TaskDate.Render(date)

	if selected {
		return s.ListSelected.Width(width).Render(line)
	}
	return s.ListItem.Width(width).Render(line)
}

func (v *TaskListView) renderStatus() string {
	s := v.styles

	parts := []string{s.StatusBar.Render(fmt.Sprintf("%d task(s) left", v.store.RemainingCount()))}
	if v.status != "" {
		parts = append(parts, s.StatusBar.Render(v.status))
	}
	switch err := v.store.LastError(); {
	case errors.Is(err, store.ErrStorageRead):
		parts = append(parts, s.StatusWarning.Render("⚠ saved tasks could not be read"))
	case err != nil:
		parts = append(parts, s.StatusWarning.Render("⚠ changes are not being saved"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	full := help.New()
	full.ShowAll = true

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Keyboard Shortcuts"),
		"",
		full.View(v.keys),
		"",
		s.TitleMuted.Render("Press any key to close"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	name := truncate.StringWithTail(v.deleteTargetText, uint(max(contentWidth-20, 10)), "…")

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q", name)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
