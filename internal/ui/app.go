package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/ui/styles"
	"github.com/tgienger/dida/internal/ui/views"
)

// lastSourceKey remembers the list or tag open when the app last quit
const lastSourceKey = "last_source"

// View is the active screen
type View int

const (
	ViewLists View = iota
	ViewTasks
)

type App struct {
	db          *db.DB
	loc         *time.Location
	currentView View
	lists       *views.ListsView
	taskList    *views.TaskListView
	width       int
	height      int
}

// NewApp creates the application with the named theme
func NewApp(database *db.DB, theme string, loc *time.Location) *App {
	styles.Apply(theme)
	return &App{
		db:          database,
		loc:         loc,
		currentView: ViewLists,
		lists:       views.NewListsView(database),
	}
}

func (a *App) Init() tea.Cmd {
	if src, ok := a.restoreSource(); ok {
		return tea.Batch(a.lists.Init(), a.openSource(src))
	}
	return a.lists.Init()
}

// restoreSource resolves the saved "list:<id>" or "tag:<id>" setting
func (a *App) restoreSource() (views.Source, bool) {
	saved, err := a.db.GetSetting(lastSourceKey)
	if err != nil || saved == "" {
		return views.Source{}, false
	}
	kind, id, ok := strings.Cut(saved, ":")
	if !ok {
		return views.Source{}, false
	}
	switch kind {
	case "list":
		if l, err := a.db.GetList(id); err == nil {
			return views.SourceFromList(*l), true
		}
	case "tag":
		if t, err := a.db.GetTag(id); err == nil {
			return views.SourceFromTag(*t), true
		}
	}
	return views.Source{}, false
}

func (a *App) openSource(src views.Source) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.db, src, a.loc)
	_ = a.db.SetSetting(lastSourceKey, src.Key())

	return tea.Batch(
		a.taskList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The sidebar persists behind the task view
		a.lists.Update(msg)

	case views.SelectedSource:
		return a, a.openSource(msg.Source)

	case views.BackToLists:
		a.currentView = ViewLists
		_ = a.db.SetSetting(lastSourceKey, "")
		return a, tea.Batch(
			a.lists.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLists:
		_, cmd = a.lists.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewTasks && a.taskList != nil {
		return a.taskList.View()
	}
	return a.lists.View()
}
