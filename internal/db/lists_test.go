package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/dida/internal/models"
)

func TestCreateList(t *testing.T) {
	db, clock := setupTestDB(t)

	l, err := db.CreateList(models.List{Name: "Work", Icon: "💼", Color: "#123456", Order: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, clock.Now().Unix(), l.CreatedAt)
	assert.False(t, l.IsSmart)

	got, err := db.GetList(l.ID)
	require.NoError(t, err)
	assert.Equal(t, l, got)
}

func TestCreateList_DuplicateID(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.CreateList(models.List{ID: "work", Name: "Work", Icon: "w", Color: "#fff"})
	require.NoError(t, err)

	_, err = db.CreateList(models.List{ID: "work", Name: "Other", Icon: "o", Color: "#000"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestGetList_NotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.GetList("missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "list", nf.Kind)
	assert.Equal(t, "missing", nf.ID)
}

func TestListLists_Order(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.CreateList(models.List{ID: "b", Name: "B", Icon: "b", Color: "#fff", Order: 10, CreatedAt: 200})
	require.NoError(t, err)
	_, err = db.CreateList(models.List{ID: "a", Name: "A", Icon: "a", Color: "#fff", Order: 10, CreatedAt: 100})
	require.NoError(t, err)
	_, err = db.CreateList(models.List{ID: "c", Name: "C", Icon: "c", Color: "#fff", Order: 6, CreatedAt: 300})
	require.NoError(t, err)

	user, err := db.ListUserLists()
	require.NoError(t, err)
	require.Len(t, user, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{user[0].ID, user[1].ID, user[2].ID})

	all, err := db.ListLists()
	require.NoError(t, err)
	require.Len(t, all, 9)
	assert.Equal(t, models.SmartAll, all[0].ID)
	assert.Equal(t, "c", all[6].ID)
}

func TestUpdateList_KeepsImmutableFields(t *testing.T) {
	db, _ := setupTestDB(t)
	l := mustCreateList(t, db, "Work")

	edit := *l
	edit.Name = "Office"
	edit.Color = "#abcdef"
	edit.Order = 3
	edit.CreatedAt = 1
	edit.IsSmart = true

	updated, err := db.UpdateList(edit)
	require.NoError(t, err)
	assert.Equal(t, "Office", updated.Name)
	assert.Equal(t, "#abcdef", updated.Color)
	assert.Equal(t, 3, updated.Order)
	assert.Equal(t, l.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.IsSmart)
}

func TestUpdateList_NotFound(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := db.UpdateList(models.List{ID: "missing", Name: "x"})
	assert.True(t, IsNotFound(err))
}

func TestDeleteList_CascadesTasks(t *testing.T) {
	db, _ := setupTestDB(t)
	l := mustCreateList(t, db, "Work")
	task := mustCreateTask(t, db, "report", l.ID)
	sub, err := db.CreateSubtask(task.ID, "appendix")
	require.NoError(t, err)

	require.NoError(t, db.DeleteList(l.ID))

	_, err = db.GetTask(task.ID)
	assert.True(t, IsNotFound(err))
	_, err = db.GetTask(sub.ID)
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(db.DeleteList(l.ID)))
}
