package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
	"github.com/tgienger/dida/internal/timeparse"
	"gopkg.in/yaml.v3"
)

var testZone = time.FixedZone("UTC+8", 8*60*60)

type harness struct {
	t      *testing.T
	dbPath string
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &harness{
		t:      t,
		dbPath: filepath.Join(t.TempDir(), "dida.db"),
		now:    time.Date(2026, time.March, 10, 10, 0, 0, 0, testZone),
	}
}

// run executes one dida invocation against the harness database
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	a := newApp()
	a.now = func() time.Time { return h.now }
	a.loc = testZone
	a.dates = timeparse.New(testZone)
	a.isTerminal = func() bool { return false }

	cmd := newRootCmd(a, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", h.dbPath}, args...))
	err := cmd.Execute()
	a.shutdown()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *harness) addTask(args ...string) models.Task {
	h.t.Helper()
	var task models.Task
	out := h.mustRun(append([]string{"--json", "task", "add"}, args...)...)
	require.NoError(h.t, json.Unmarshal([]byte(out), &task), out)
	return task
}

func (h *harness) listJSON(args ...string) []models.Task {
	h.t.Helper()
	var tasks []models.Task
	out := h.mustRun(append([]string{"--json", "task", "ls"}, args...)...)
	require.NoError(h.t, json.Unmarshal([]byte(out), &tasks), out)
	return tasks
}

func TestTaskAdd(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tag", "add", "home")
	h.mustRun("list", "add", "Errands")

	task := h.addTask("Buy", "milk", "--list", "errands", "--due", "2026-03-11 18:00",
		"--priority", "high", "--tag", "home", "--repeat", "weekly")

	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2026, time.March, 11, 18, 0, 0, 0, testZone).Unix(), *task.DueDate)
	require.Len(t, task.Tags, 1)
	require.NotNil(t, task.Repeat)
	assert.Equal(t, models.RepeatWeekly, task.Repeat.Type)

	tasks := h.listJSON("--list", "Errands")
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	text := h.mustRun("task", "ls", "--tag", "home")
	assert.Contains(t, text, "Buy milk")
	assert.Contains(t, text, "#home")
	assert.Contains(t, text, "due 2026-03-11 18:00")
}

func TestTaskAdd_DefaultsToInbox(t *testing.T) {
	h := newHarness(t)

	task := h.addTask("Call", "mom")
	assert.Equal(t, models.SmartInbox, task.ListID)
}

func TestTaskAdd_RequiresTitleWithoutTerminal(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("task", "add")
	assert.ErrorContains(t, err, "title is required")
}

func TestTaskAdd_RejectsComputedSmartList(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("task", "add", "x", "--list", "today")
	assert.ErrorContains(t, err, "smart list")
}

func TestTaskAdd_UnknownTag(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("task", "add", "x", "--tag", "ghost")
	assert.True(t, db.IsNotFound(err))
}

func TestTaskDone_CompletesSubtasks(t *testing.T) {
	h := newHarness(t)
	parent := h.addTask("Plan trip")
	h.mustRun("task", "sub", parent.ID[:8], "Book", "flights")

	out := h.mustRun("task", "done", parent.ID)
	assert.Contains(t, out, "Completed")

	var detail struct {
		models.Task
		Subtasks []models.Task `json:"subtasks"`
	}
	out = h.mustRun("--json", "task", "show", parent.ID)
	require.NoError(t, json.Unmarshal([]byte(out), &detail), out)
	assert.True(t, detail.Completed)
	require.Len(t, detail.Subtasks, 1)
	assert.Equal(t, "Book flights", detail.Subtasks[0].Title)
	assert.True(t, detail.Subtasks[0].Completed)

	out = h.mustRun("task", "done", parent.ID)
	assert.Contains(t, out, "Reopened")
}

func TestTaskRemoveRestorePurge(t *testing.T) {
	h := newHarness(t)
	keep := h.addTask("keep")
	gone := h.addTask("gone")
	purged := h.addTask("purged")

	h.mustRun("task", "rm", gone.ID, purged.ID)
	assert.Len(t, h.listJSON(), 1)
	assert.Len(t, h.listJSON("--list", models.SmartTrash), 2)

	h.mustRun("task", "restore", gone.ID)
	h.mustRun("task", "purge", purged.ID)
	assert.Len(t, h.listJSON(), 2)

	_, err := h.run("task", "show", purged.ID)
	assert.True(t, db.IsNotFound(err))

	h.mustRun("task", "rm", keep.ID)
	out := h.mustRun("task", "empty-trash")
	assert.Contains(t, out, "Deleted 1 task(s)")
	assert.Empty(t, h.listJSON("--list", "Trash"))
}

func TestTaskMove(t *testing.T) {
	h := newHarness(t)
	h.mustRun("list", "add", "Work")
	a := h.addTask("A", "-l", "Work")
	b := h.addTask("B", "-l", "Work")
	c := h.addTask("C", "-l", "Work")

	// Equal order and created_at: the list starts in id order
	start := h.listJSON("-l", "Work")
	require.Len(t, start, 3)

	h.mustRun("task", "move", a.ID, "3")
	h.mustRun("task", "move", c.ID, "2")
	h.mustRun("task", "move", b.ID, "1")

	tasks := h.listJSON("-l", "Work")
	got := []string{tasks[0].Title, tasks[1].Title, tasks[2].Title}
	assert.Equal(t, []string{"B", "C", "A"}, got)
}

func TestTaskEdit(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tag", "add", "x")
	h.mustRun("tag", "add", "y")
	h.mustRun("tag", "add", "z")
	task := h.addTask("draft", "--tag", "x", "--tag", "y", "--due", "2026-03-12")

	var edited models.Task
	out := h.mustRun("--json", "task", "edit", task.ID, "--title", "final",
		"--add-tag", "z", "--rm-tag", "x", "--due", "none", "--priority", "2")
	require.NoError(t, json.Unmarshal([]byte(out), &edited), out)

	assert.Equal(t, "final", edited.Title)
	assert.Nil(t, edited.DueDate)
	assert.Equal(t, models.PriorityMedium, edited.Priority)
	assert.Len(t, edited.Tags, 2)

	_, err := h.run("task", "edit", task.ID, "--title", " ")
	assert.Error(t, err)
}

func TestTaskSearch(t *testing.T) {
	h := newHarness(t)
	h.addTask("Water plants", "--desc", "the fern too")
	h.addTask("Pay rent")

	out := h.mustRun("task", "search", "FERN")
	assert.Contains(t, out, "Water plants")
	assert.NotContains(t, out, "Pay rent")
}

func TestListCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("list", "add", "Work", "--icon", "💼")
	h.addTask("report", "-l", "Work")

	out := h.mustRun("list", "ls")
	assert.Contains(t, out, "Smart lists")
	assert.Contains(t, out, "Next 7 Days")
	assert.Contains(t, out, "💼 Work (1)")

	h.mustRun("list", "edit", "Work", "--name", "Office")

	_, err := h.run("list", "rm", "Office")
	assert.ErrorContains(t, err, "--force")

	_, err = h.run("list", "rm", "Inbox")
	assert.ErrorContains(t, err, "smart list")

	h.mustRun("list", "rm", "Office", "--force")
	assert.Empty(t, h.listJSON())
}

func TestTagCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tag", "add", "areas")
	h.mustRun("tag", "add", "garden", "--parent", "areas")
	h.mustRun("tag", "add", "urgent")

	out := h.mustRun("tag", "pin", "urgent")
	assert.Contains(t, out, "Pinned #urgent")

	out = h.mustRun("tag", "ls")
	assert.Regexp(t, `(?s)#urgent.*#areas.*    #garden`, out)

	out = h.mustRun("tag", "ls", "--parent", "areas")
	assert.Contains(t, out, "#garden")
	assert.NotContains(t, out, "#urgent")

	_, err := h.run("tag", "edit", "areas", "--parent", "garden")
	assert.True(t, db.IsConflict(err))

	_, err = h.run("tag", "add", "urgent")
	assert.True(t, db.IsConflict(err))

	h.mustRun("tag", "rm", "areas")
	var tags []models.Tag
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("--json", "tag", "ls")), &tags))
	assert.Len(t, tags, 2)
}

func TestRemind(t *testing.T) {
	h := newHarness(t)
	h.addTask("stretch", "--remind", "2026-03-10 09:00")
	h.addTask("later", "--remind", "2026-03-10 20:00")

	out := h.mustRun("remind")
	assert.Contains(t, out, "stretch")
	assert.NotContains(t, out, "later")

	out = h.mustRun("remind", "--at", "2026-03-10 21:00")
	assert.Contains(t, out, "later")
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tag", "add", "home")
	h.addTask("dust", "--tag", "home")
	gone := h.addTask("old")
	h.mustRun("task", "rm", gone.ID)

	var doc struct {
		SchemaVersion int           `yaml:"schema_version"`
		Lists         []models.List `yaml:"lists"`
		Tags          []models.Tag  `yaml:"tags"`
		Tasks         []models.Task `yaml:"tasks"`
		Trash         []models.Task `yaml:"trash"`
	}
	out := h.mustRun("export", "--format", "yaml")
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc), out)
	assert.Positive(t, doc.SchemaVersion)
	assert.Len(t, doc.Lists, 6)
	assert.Len(t, doc.Tags, 1)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, "dust", doc.Tasks[0].Title)
	assert.Len(t, doc.Trash, 1)

	out = h.mustRun("export")
	assert.True(t, json.Valid([]byte(out)))

	_, err := h.run("export", "--format", "xml")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	// Storage is never opened, so an unusable path is fine
	h.dbPath = "/dev/null/nope.db"

	out := h.mustRun("version")
	assert.Equal(t, "dida test\n", out)
}

func TestMergeTags(t *testing.T) {
	assert.Equal(t, []string{"y", "z"}, mergeTags([]string{"x", "y"}, []string{"z", "y"}, []string{"x"}))
	assert.Equal(t, []string{}, mergeTags(nil, nil, nil))
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]models.Priority{
		"": models.PriorityNone, "none": models.PriorityNone, "LOW": models.PriorityLow,
		"med": models.PriorityMedium, "3": models.PriorityHigh,
	} {
		got, err := parsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parsePriority("4")
	assert.Error(t, err)
	_, err = parsePriority("urgent")
	assert.Error(t, err)
}
