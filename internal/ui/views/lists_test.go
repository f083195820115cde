package views

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/dida/internal/models"
)

func labels(items []list.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		it := item.(sidebarItem)
		out[i] = it.label
		if it.kind == itemHeader {
			out[i] = "[" + it.label + "]"
		}
	}
	return out
}

func TestSidebarItems(t *testing.T) {
	parent := "home"
	user := []models.List{{ID: "work", Name: "Work"}}
	tags := []models.Tag{
		{ID: "errands", Name: "errands"},
		{ID: "home", Name: "home"},
		{ID: "garden", Name: "garden", ParentID: &parent},
		{ID: "urgent", Name: "urgent", IsPinned: true},
	}

	items := sidebarItems(models.SmartLists()[:2], user, map[string]int{"work": 2}, tags)

	assert.Equal(t, []string{
		"All", "Today",
		"[Lists]", "Work",
		"[Tags]", "urgent", "errands", "home", "garden",
	}, labels(items))
	assert.Equal(t, 2, items[3].(sidebarItem).count)
	assert.Equal(t, 1, items[8].(sidebarItem).depth)
}

func TestSidebarItems_NoUserListsOrTags(t *testing.T) {
	items := sidebarItems(models.SmartLists(), nil, nil, nil)
	assert.Len(t, items, len(models.SmartLists()))
}

func TestSource(t *testing.T) {
	trash := SourceFromList(models.List{ID: models.SmartTrash})
	assert.True(t, trash.IsTrash())
	assert.False(t, trash.Writable())
	assert.Equal(t, "list:"+models.SmartTrash, trash.Key())

	assert.True(t, SourceFromList(models.List{ID: models.SmartInbox}).Writable())
	assert.False(t, SourceFromList(models.List{ID: models.SmartToday}).Writable())
	assert.True(t, SourceFromList(models.List{ID: "work"}).Writable())

	tag := SourceFromTag(models.Tag{ID: "t1", Name: "home"})
	assert.Equal(t, "tag:t1", tag.Key())
	assert.Equal(t, "#home", tag.Name)
	assert.True(t, tag.Writable())
	assert.False(t, tag.IsTrash())
}

func openLists(t *testing.T, v *ListsView) {
	t.Helper()
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	drain(v, v.Init())
}

func TestListsView_SkipsHeaders(t *testing.T) {
	database := setupViewDB(t)
	_, err := database.CreateList(models.NewList("Work", "📁", "#fff"))
	require.NoError(t, err)

	v := NewListsView(database)
	openLists(t, v)

	last := len(models.SmartLists()) - 1
	v.list.Select(last)
	press(v, "j")
	it, ok := v.selected()
	require.True(t, ok)
	assert.Equal(t, "Work", it.list.Name)

	press(v, "k")
	it, ok = v.selected()
	require.True(t, ok)
	assert.Equal(t, models.SmartTrash, it.list.ID)
}

func TestListsView_SelectEmitsSource(t *testing.T) {
	database := setupViewDB(t)
	v := NewListsView(database)
	openLists(t, v)

	_, cmd := v.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(SelectedSource)
	require.True(t, ok)
	assert.Equal(t, models.SmartAll, msg.Source.ListID)
}

func TestListsView_DeleteUserListOnly(t *testing.T) {
	database := setupViewDB(t)
	work, err := database.CreateList(models.NewList("Work", "📁", "#fff"))
	require.NoError(t, err)

	v := NewListsView(database)
	openLists(t, v)

	// Smart lists can't be deleted
	press(v, "d")
	assert.False(t, v.confirmingDelete)

	for i, item := range v.list.Items() {
		if it := item.(sidebarItem); it.kind == itemList && it.list.ID == work.ID {
			v.list.Select(i)
		}
	}
	press(v, "d")
	require.True(t, v.confirmingDelete)
	press(v, "y")

	users, err := database.ListUserLists()
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotContains(t, labels(v.list.Items()), "Work")
}

func TestListsView_CreateList(t *testing.T) {
	database := setupViewDB(t)
	v := NewListsView(database)
	openLists(t, v)

	press(v, "n")
	require.True(t, v.creating)
	v.newName.SetValue("Groceries")

	_, cmd := v.Update(keyMsg("ctrl+s"))
	assert.False(t, v.creating)
	require.NotNil(t, cmd)
	drain(v, cmd)

	users, err := database.ListUserLists()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Groceries", users[0].Name)
	assert.Equal(t, "📁", users[0].Icon)
	assert.Contains(t, labels(v.list.Items()), "Groceries")
}

func TestListsView_TogglePin(t *testing.T) {
	database := setupViewDB(t)
	tag, err := database.CreateTag(models.NewTag("home", "#fff"))
	require.NoError(t, err)

	v := NewListsView(database)
	openLists(t, v)
	v.list.Select(len(v.list.Items()) - 1)
	press(v, "p")

	got, err := database.GetTag(tag.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)
}
