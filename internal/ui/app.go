package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/views"
)

// FilterKey remembers the last filter between sessions, next to the task list
const FilterKey = "todo_filter_v1"

type App struct {
	store    *store.Store
	settings store.Storage
	log      *zap.Logger
	taskList *views.TaskListView
	width    int
	height   int
}

// Creates a new application. The store must already be loaded.
func NewApp(s *store.Store, settings store.Storage, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		store:    s,
		settings: settings,
		log:      logger,
	}
	a.taskList = views.NewTaskListView(s, a.lastFilter())
	return a
}

// lastFilter restores the filter saved by a previous session
func (a *App) lastFilter() models.Filter {
	raw, ok, err := a.settings.Get(FilterKey)
	if err != nil {
		a.log.Warn("failed to read last filter", zap.Error(err))
		return models.FilterAll
	}
	if !ok {
		return models.FilterAll
	}
	f, err := models.ParseFilter(raw)
	if err != nil {
		a.log.Warn("ignoring saved filter", zap.String("value", raw), zap.Error(err))
		return models.FilterAll
	}
	return f
}

func (a *App) Init() tea.Cmd {
	return a.taskList.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case views.FilterChanged:
		// Save as last used filter
		if err := a.settings.Set(FilterKey, string(msg.Filter)); err != nil {
			a.log.Warn("failed to save filter", zap.Error(err))
		}
		return a, nil
	}

	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return a.taskList.View()
}
