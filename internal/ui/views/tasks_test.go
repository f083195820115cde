package views

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
)

func setupViewDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "dida.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// drain runs cmd and feeds every resulting message back into m
func drain(m tea.Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		switch msg := msg.(type) {
		case nil:
			return
		case tea.BatchMsg:
			for _, c := range msg {
				drain(m, c)
			}
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(m tea.Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		drain(m, cmd)
	}
}

func openView(t *testing.T, database *db.DB, src Source) *TaskListView {
	t.Helper()
	v := NewTaskListView(database, src, time.UTC)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	drain(v, v.Init())
	return v
}

func mustTask(t *testing.T, database *db.DB, title, listID string, order int) *models.Task {
	t.Helper()
	task := models.NewTask(title, listID)
	task.Order = order
	created, err := database.CreateTask(task)
	require.NoError(t, err)
	return created
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func inbox() Source {
	return Source{ListID: models.SmartInbox, Name: "Inbox"}
}

func TestTaskListView_CreateTask(t *testing.T) {
	database := setupViewDB(t)
	v := openView(t, database, inbox())

	press(v, "n")
	require.True(t, v.editing)
	v.editTitle.SetValue("Write report")
	v.editDesc.SetValue("quarterly")
	v.editPriority.SetValue("3")
	v.editDue.SetValue("2026-03-15")
	press(v, "ctrl+s")

	require.False(t, v.editing)
	require.NoError(t, v.err)
	require.Len(t, v.tasks, 1)

	got := v.tasks[0]
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "quarterly", got.Description)
	assert.Equal(t, models.SmartInbox, got.ListID)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC).Unix(), *got.DueDate)
}

func TestTaskListView_CreateRequiresTitle(t *testing.T) {
	database := setupViewDB(t)
	v := openView(t, database, inbox())

	press(v, "n", "ctrl+s")

	assert.True(t, v.editing)
	assert.EqualError(t, v.err, "a title is required")
	assert.Empty(t, v.tasks)
}

func TestTaskListView_CreateRejectsBadDue(t *testing.T) {
	database := setupViewDB(t)
	v := openView(t, database, inbox())

	press(v, "n")
	v.editTitle.SetValue("x")
	v.editDue.SetValue("qwerty")
	press(v, "ctrl+s")

	assert.True(t, v.editing)
	assert.Error(t, v.err)
}

func TestTaskListView_NewTaskFromTagLandsInInbox(t *testing.T) {
	database := setupViewDB(t)
	tag, err := database.CreateTag(models.NewTag("work", "#fff"))
	require.NoError(t, err)

	v := openView(t, database, SourceFromTag(*tag))
	press(v, "n")
	v.editTitle.SetValue("tagged")
	press(v, "ctrl+s")

	require.Len(t, v.tasks, 1)
	assert.Equal(t, models.SmartInbox, v.tasks[0].ListID)
	assert.Equal(t, []string{tag.ID}, v.tasks[0].Tags)
}

func TestTaskListView_EditTask(t *testing.T) {
	database := setupViewDB(t)
	task := mustTask(t, database, "old", models.SmartInbox, 0)
	v := openView(t, database, inbox())

	press(v, "e")
	require.True(t, v.editing)
	assert.Equal(t, "old", v.editTitle.Value())
	v.editTitle.SetValue("new")
	v.editPriority.SetValue("9")
	press(v, "ctrl+s")

	got, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, models.PriorityNone, got.Priority)
}

func TestTaskListView_ToggleHidesCompleted(t *testing.T) {
	database := setupViewDB(t)
	task := mustTask(t, database, "a", models.SmartInbox, 0)
	v := openView(t, database, inbox())

	press(v, "x")

	got, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Empty(t, v.tasks)

	press(v, "c")
	require.Len(t, v.tasks, 1)
	assert.True(t, v.tasks[0].Completed)
}

func TestTaskListView_DeleteMovesToTrash(t *testing.T) {
	database := setupViewDB(t)
	task := mustTask(t, database, "a", models.SmartInbox, 0)
	v := openView(t, database, inbox())

	press(v, "d")
	assert.Equal(t, confirmDelete, v.confirming)
	press(v, "n")
	assert.Equal(t, confirmNone, v.confirming)
	assert.Len(t, v.tasks, 1)

	press(v, "d", "y")
	assert.Empty(t, v.tasks)

	got, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestTaskListView_Trash(t *testing.T) {
	database := setupViewDB(t)
	a := mustTask(t, database, "a", models.SmartInbox, 0)
	b := mustTask(t, database, "b", models.SmartInbox, 1)
	c := mustTask(t, database, "c", models.SmartInbox, 2)
	for _, task := range []*models.Task{a, b, c} {
		require.NoError(t, database.DeleteTask(task.ID))
	}

	v := openView(t, database, SourceFromList(models.List{ID: models.SmartTrash, Name: "Trash"}))
	require.Len(t, v.tasks, 3)

	// Editing keys do nothing in the trash
	press(v, "n", "x")
	assert.False(t, v.editing)

	restored := v.tasks[0].ID
	press(v, "r")
	assert.Len(t, v.tasks, 2)
	got, err := database.GetTask(restored)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)

	purged := v.tasks[0].ID
	press(v, "D")
	assert.Equal(t, confirmPurge, v.confirming)
	press(v, "y")
	assert.Len(t, v.tasks, 1)
	_, err = database.GetTask(purged)
	assert.True(t, db.IsNotFound(err))

	press(v, "E", "y")
	assert.Empty(t, v.tasks)
}

func TestTaskListView_Reorder(t *testing.T) {
	database := setupViewDB(t)
	list, err := database.CreateList(models.NewList("Work", "📁", "#fff"))
	require.NoError(t, err)
	mustTask(t, database, "a", list.ID, 0)
	mustTask(t, database, "b", list.ID, 1)
	mustTask(t, database, "c", list.ID, 2)

	v := openView(t, database, SourceFromList(*list))
	require.Equal(t, []string{"a", "b", "c"}, titles(v.tasks))

	press(v, "J")
	assert.Equal(t, []string{"b", "a", "c"}, titles(v.tasks))
	assert.Equal(t, 1, v.cursor)

	press(v, "J")
	assert.Equal(t, []string{"b", "c", "a"}, titles(v.tasks))

	// Already at the bottom
	press(v, "J")
	assert.Equal(t, []string{"b", "c", "a"}, titles(v.tasks))

	press(v, "K", "K")
	assert.Equal(t, []string{"a", "b", "c"}, titles(v.tasks))
	assert.Equal(t, 0, v.cursor)
}

func TestTaskListView_AssignTags(t *testing.T) {
	database := setupViewDB(t)
	tag, err := database.CreateTag(models.NewTag("home", "#fff"))
	require.NoError(t, err)
	task := mustTask(t, database, "a", models.SmartInbox, 0)
	v := openView(t, database, inbox())

	press(v, "t")
	require.True(t, v.assigningTags)
	press(v, "enter")

	got, err := database.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{tag.ID}, got.Tags)

	press(v, "enter")
	got, err = database.GetTask(task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	press(v, "esc")
	assert.False(t, v.assigningTags)
}

func TestTaskListView_Subtask(t *testing.T) {
	database := setupViewDB(t)
	parent := mustTask(t, database, "parent", models.SmartInbox, 0)
	v := openView(t, database, inbox())

	press(v, "s")
	require.True(t, v.editing)
	require.NotNil(t, v.editParent)
	v.editTitle.SetValue("child")
	press(v, "ctrl+s")

	subs, err := database.ListSubtasks(parent.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "child", subs[0].Title)

	for i, task := range v.tasks {
		if task.ID == parent.ID {
			v.cursor = i
		}
	}
	press(v, "enter")
	assert.True(t, v.viewingTask)
	assert.Len(t, v.viewSubtasks, 1)
}

func TestTaskListView_SearchAndFilter(t *testing.T) {
	database := setupViewDB(t)
	tag, err := database.CreateTag(models.NewTag("work", "#fff"))
	require.NoError(t, err)
	mustTask(t, database, "buy milk", models.SmartInbox, 0)
	tagged := models.NewTask("buy bread", models.SmartInbox)
	tagged.Order = 1
	tagged.Tags = []string{tag.ID}
	_, err = database.CreateTask(tagged)
	require.NoError(t, err)
	mustTask(t, database, "call mom", models.SmartInbox, 2)

	v := openView(t, database, inbox())
	v.searchInput.SetValue("buy")
	drain(v, v.loadTasks)
	assert.Equal(t, []string{"buy milk", "buy bread"}, titles(v.tasks))

	press(v, "f")
	require.True(t, v.tagDropdownOpen)
	press(v, "j", "enter")
	assert.Equal(t, []string{"buy bread"}, titles(v.tasks))
}

func TestToggleID(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, toggleID([]string{"a"}, "b"))
	assert.Equal(t, []string{"b"}, toggleID([]string{"a", "b"}, "a"))
	assert.Equal(t, []string{"x"}, toggleID(nil, "x"))
}

func TestFilterTasks(t *testing.T) {
	tag := "t1"
	tasks := []models.Task{
		{ID: "1", Completed: true, Tags: []string{tag}},
		{ID: "2", Tags: []string{tag}},
		{ID: "3"},
	}
	assert.Len(t, filterTasks(tasks, nil, true), 3)
	assert.Len(t, filterTasks(tasks, nil, false), 2)
	assert.Len(t, filterTasks(tasks, &tag, true), 2)
	got := filterTasks(tasks, &tag, false)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}
