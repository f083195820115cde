package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
	"github.com/tgienger/dida/internal/timeparse"
	"github.com/tgienger/dida/internal/ui/keys"
	"github.com/tgienger/dida/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	return max(minVal, min(val, maxVal))
}

type errMsg struct{ err error }

// FocusArea is the part of the task view that has focus
type FocusArea int

const (
	FocusBackButton FocusArea = iota
	FocusSearchInput
	FocusTagDropdown
	FocusTaskList
)

// edit form fields, in tab order
const (
	fieldTitle = iota
	fieldDesc
	fieldPriority
	fieldDue
	fieldTags
	fieldSave
	fieldCount
)

// confirmation targets
type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDelete
	confirmPurge
	confirmEmptyTrash
)

// TaskListView shows the tasks of one list or tag
type TaskListView struct {
	db     *db.DB
	source Source
	dates  *timeparse.Parser
	loc    *time.Location
	tasks  []models.Task
	tags   []models.Tag
	styles *styles.Styles
	keys   keys.KeyMap
	err    error

	width  int
	height int

	focus         FocusArea
	cursor        int
	scrollY       int
	searchInput   textinput.Model
	filterTag     *string // nil = no filter
	showCompleted bool

	tagDropdownOpen bool
	tagCursor       int

	// Task creation/editing
	editing       bool
	editingNew    bool
	editParent    *string // set when the new task is a subtask
	editTitle     textinput.Model
	editDesc      textarea.Model
	editPriority  textinput.Model
	editDue       textinput.Model
	editFocusIdx  int
	editTags      []string
	editTagCursor int

	// Tag assignment mode
	assigningTags   bool
	assignTagCursor int
	assigningTaskID string

	// Read-only detail view
	viewingTask  bool
	viewSubtasks []models.Task

	confirming confirmKind
	target     models.Task

	showHelpPopup bool
}

// NewTaskListView creates a task view for src. Dates typed into the
// form are read in loc.
func NewTaskListView(database *db.DB, src Source, loc *time.Location) *TaskListView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 2000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editPriority := textinput.New()
	editPriority.Placeholder = "0-3"
	editPriority.CharLimit = 1

	editDue := textinput.New()
	editDue.Placeholder = "tomorrow 9am, 2026-03-15, none"
	editDue.CharLimit = 64

	return &TaskListView{
		db:     database,
		source: src,
		dates:  timeparse.New(loc),
		loc:    loc,
		styles: s,
		keys:   keys.DefaultKeyMap(),
		focus:  FocusTaskList,
		// Completed and Trash exist to show finished tasks
		showCompleted: src.Tag == nil && (src.ListID == models.SmartCompleted || src.ListID == models.SmartTrash),
		searchInput:   search,
		editTitle:     editTitle,
		editDesc:      editDesc,
		editPriority:  editPriority,
		editDue:       editDue,
	}
}

// BackToLists signals to go back to the sidebar
type BackToLists struct{}

// Init loads tasks and tags
func (v *TaskListView) Init() tea.Cmd {
	return tea.Batch(v.loadTasks, v.loadTags)
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

type tagsLoadedMsg struct {
	tags []models.Tag
}

type subtasksLoadedMsg struct {
	parentID string
	tasks    []models.Task
}

func (v *TaskListView) loadTasks() tea.Msg {
	var (
		tasks []models.Task
		err   error
	)
	if v.source.Tag != nil {
		tasks, err = v.db.ListTasksByTag(v.source.Tag.ID)
	} else {
		tasks, err = v.db.ListTasksByList(v.source.ListID)
	}
	if err != nil {
		return errMsg{err}
	}

	if q := strings.TrimSpace(v.searchInput.Value()); q != "" {
		if v.source.IsTrash() {
			tasks = matchTitle(tasks, q)
		} else {
			hits, err := v.db.SearchTasks(q)
			if err != nil {
				return errMsg{err}
			}
			tasks = intersect(tasks, hits)
		}
	}
	return tasksLoadedMsg{tasks: filterTasks(tasks, v.filterTag, v.showCompleted)}
}

// intersect keeps the tasks in base that also appear in hits, in base order
func intersect(base, hits []models.Task) []models.Task {
	ids := make(map[string]bool, len(hits))
	for _, t := range hits {
		ids[t.ID] = true
	}
	out := base[:0:0]
	for _, t := range base {
		if ids[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// matchTitle keeps tasks whose title contains q, ignoring case.
// Search skips the trash, so trashed tasks are matched here.
func matchTitle(tasks []models.Task, q string) []models.Task {
	q = strings.ToLower(q)
	out := tasks[:0:0]
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// filterTasks applies the tag filter and hides completed tasks unless asked
func filterTasks(tasks []models.Task, tagID *string, showCompleted bool) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !showCompleted && t.Completed {
			continue
		}
		if tagID != nil && !t.HasTag(*tagID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (v *TaskListView) loadTags() tea.Msg {
	tags, err := v.db.ListTags()
	if err != nil {
		return errMsg{err}
	}
	return tagsLoadedMsg{tags: tags}
}

func (v *TaskListView) loadSubtasks() tea.Msg {
	task, ok := v.current()
	if !ok {
		return nil
	}
	subs, err := v.db.ListSubtasks(task.ID)
	if err != nil {
		return errMsg{err}
	}
	return subtasksLoadedMsg{parentID: task.ID, tasks: subs}
}

// run performs a write and reloads the tasks, or reports the error
func (v *TaskListView) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return v.loadTasks()
	}
}

func (v *TaskListView) current() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) tagByID(id string) (models.Tag, bool) {
	for _, t := range v.tags {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tag{}, false
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		v.err = nil
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		v.ensureVisible()
		if v.assigningTags {
			if _, ok := v.current(); !ok || v.tasks[v.cursor].ID != v.assigningTaskID {
				v.assigningTags = false
				v.assigningTaskID = ""
			}
		}
		if v.viewingTask {
			return v, v.loadSubtasks
		}
		return v, nil

	case tagsLoadedMsg:
		v.tags = msg.tags
		return v, nil

	case subtasksLoadedMsg:
		if task, ok := v.current(); ok && task.ID == msg.parentID {
			v.viewSubtasks = msg.tasks
		}
		return v, nil

	case errMsg:
		v.err = msg.err
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirming != confirmNone {
			return v.updateConfirm(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.viewingTask {
			return v.updateViewingTask(msg)
		}
		if v.assigningTags {
			return v.updateAssigningTags(msg)
		}
		if v.tagDropdownOpen {
			return v.updateTagDropdown(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Typing in the search box doesn't trigger hotkeys
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, v.loadTasks
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor, v.scrollY = 0, 0
			return v, tea.Batch(cmd, v.loadTasks)
		}
	}

	trash := v.source.IsTrash()
	task, hasTask := v.current()
	onList := v.focus == FocusTaskList && hasTask

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToLists{} }

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.MoveUp):
		if onList && !trash {
			return v, v.move(-1)
		}
		return v, nil

	case key.Matches(msg, v.keys.MoveDown):
		if onList && !trash {
			return v, v.move(1)
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusBackButton:
			return v, func() tea.Msg { return BackToLists{} }
		case FocusTagDropdown:
			v.tagDropdownOpen = true
			v.tagCursor = 0
		case FocusTaskList:
			if hasTask {
				v.viewingTask = true
				v.viewSubtasks = nil
				return v, v.loadSubtasks
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.focus = FocusTagDropdown
		v.tagDropdownOpen = true
		v.tagCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showCompleted = !v.showCompleted
		v.cursor, v.scrollY = 0, 0
		return v, v.loadTasks
	}

	if trash {
		return v.updateTrash(msg, task, onList)
	}

	switch {
	case key.Matches(msg, v.keys.New):
		v.startNewTask(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Subtask):
		if onList {
			id := task.ID
			v.startNewTask(&id)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Edit):
		if onList {
			v.startEditTask(task)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Toggle):
		if onList {
			return v, v.run(func() error {
				_, err := v.db.ToggleTask(task.ID)
				return err
			})
		}

	case key.Matches(msg, v.keys.Delete):
		if onList {
			v.confirming, v.target = confirmDelete, task
		}

	case key.Matches(msg, v.keys.Tags):
		if onList {
			v.assigningTags = true
			v.assignTagCursor = 0
			v.assigningTaskID = task.ID
		}
	}

	return v, nil
}

// updateTrash handles the keys that only make sense in the trash
func (v *TaskListView) updateTrash(msg tea.KeyMsg, task models.Task, onList bool) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Restore):
		if onList {
			return v, v.run(func() error { return v.db.RestoreTask(task.ID) })
		}
	case key.Matches(msg, v.keys.Purge), key.Matches(msg, v.keys.Delete):
		if onList {
			v.confirming, v.target = confirmPurge, task
		}
	case key.Matches(msg, v.keys.EmptyTrash):
		if len(v.tasks) > 0 {
			v.confirming = confirmEmptyTrash
		}
	}
	return v, nil
}

// move shifts the selected task by delta among the visible tasks and
// persists the new order in one transaction
func (v *TaskListView) move(delta int) tea.Cmd {
	task, ok := v.current()
	if !ok {
		return nil
	}
	to := v.cursor + delta
	if to < 0 || to >= len(v.tasks) {
		return nil
	}
	orders := db.Reorder(v.tasks, task.ID, to)
	v.cursor = to
	v.ensureVisible()
	return v.run(func() error { return v.db.UpdateTaskOrders(orders) })
}

func (v *TaskListView) updateTagDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.tagDropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.tagCursor > 0 {
			v.tagCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.tagCursor < len(v.tags) { // +1 for "All"
			v.tagCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.tagCursor == 0 {
			v.filterTag = nil
		} else {
			id := v.tags[v.tagCursor-1].ID
			v.filterTag = &id
		}
		v.tagDropdownOpen = false
		v.cursor, v.scrollY = 0, 0
		return v, v.loadTasks
	}

	return v, nil
}

func (v *TaskListView) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		kind, id := v.confirming, v.target.ID
		v.confirming = confirmNone
		v.viewingTask = false
		switch kind {
		case confirmDelete:
			return v, v.run(func() error { return v.db.DeleteTask(id) })
		case confirmPurge:
			return v, v.run(func() error { return v.db.PurgeTask(id) })
		case confirmEmptyTrash:
			return v, v.run(func() error {
				_, err := v.db.EmptyTrash()
				return err
			})
		}
	case "n", "N", "esc":
		v.confirming = confirmNone
	}
	return v, nil
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.current()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		v.viewSubtasks = nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case v.source.IsTrash():
		if key.Matches(msg, v.keys.Restore) {
			v.viewingTask = false
			return v, v.run(func() error { return v.db.RestoreTask(task.ID) })
		}
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Toggle):
		return v, v.run(func() error {
			_, err := v.db.ToggleTask(task.ID)
			return err
		})
	case key.Matches(msg, v.keys.Subtask):
		v.viewingTask = false
		id := task.ID
		v.startNewTask(&id)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirming, v.target = confirmDelete, task
	case key.Matches(msg, v.keys.Tags):
		v.viewingTask = false
		v.assigningTags = true
		v.assignTagCursor = 0
		v.assigningTaskID = task.ID
	}
	return v, nil
}

func (v *TaskListView) updateAssigningTags(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.assigningTags = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.assignTagCursor > 0 {
			v.assignTagCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.assignTagCursor < len(v.tags)-1 {
			v.assignTagCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Toggle):
		task, ok := v.current()
		if !ok || v.assignTagCursor >= len(v.tags) {
			return v, nil
		}
		task.Tags = toggleID(task.Tags, v.tags[v.assignTagCursor].ID)
		return v, v.run(func() error {
			_, err := v.db.UpdateTask(task)
			return err
		})
	}

	return v, nil
}

// toggleID adds id to ids, or removes it if present
func toggleID(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	found := false
	for _, x := range ids {
		if x == id {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.err = nil
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case fieldTitle, fieldPriority, fieldDue:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case fieldTags:
			v.toggleEditTag()
			return v, nil
		case fieldSave:
			return v, v.saveTask()
		}
		// Enter in the description inserts a newline

	case msg.String() == " ":
		if v.editFocusIdx == fieldTags {
			v.toggleEditTag()
			return v, nil
		}

	case key.Matches(msg, v.keys.Up):
		if v.editFocusIdx == fieldTags && v.editTagCursor > 0 {
			v.editTagCursor--
			return v, nil
		}

	case key.Matches(msg, v.keys.Down):
		if v.editFocusIdx == fieldTags && v.editTagCursor < len(v.tags)-1 {
			v.editTagCursor++
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldPriority:
		v.editPriority, cmd = v.editPriority.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) toggleEditTag() {
	if v.editTagCursor < len(v.tags) {
		v.editTags = toggleID(v.editTags, v.tags[v.editTagCursor].ID)
	}
}

func (v *TaskListView) cycleFocus(dir int) {
	v.searchInput.Blur()
	v.focus = FocusArea((int(v.focus) + dir + 4) % 4)
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

// visibleItems is how many two-line task rows fit on screen
func (v *TaskListView) visibleItems() int {
	return max((v.height-12)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	n := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+n {
		v.scrollY = v.cursor - n + 1
	}
}

func (v *TaskListView) startNewTask(parentID *string) {
	v.editing = true
	v.editingNew = true
	v.editParent = parentID
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.editTags = []string{}
	if v.source.Tag != nil {
		v.editTags = append(v.editTags, v.source.Tag.ID)
	}
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editPriority.SetValue("0")
	v.editDue.Reset()
	switch v.source.ListID {
	case models.SmartToday:
		v.editDue.SetValue("today")
	case models.SmartWeek:
		v.editDue.SetValue("in 7 days")
	}
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editParent = nil
	v.editFocusIdx = fieldTitle
	v.editTagCursor = 0
	v.editTags = append([]string{}, task.Tags...)
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editPriority.SetValue(strconv.Itoa(int(task.Priority)))
	v.editDue.SetValue(timeparse.Format(task.DueDate, v.loc))
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editPriority.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldPriority:
		v.editPriority.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

// parseDue reads the due field; empty or "none" clears the date
func (v *TaskListView) parseDue() (*int64, error) {
	text := strings.TrimSpace(v.editDue.Value())
	if text == "" || strings.EqualFold(text, "none") {
		return nil, nil
	}
	ts, err := v.dates.ParseUnix(text, time.Now().In(v.loc))
	if err != nil {
		return nil, fmt.Errorf("due date %q: %w", text, err)
	}
	return &ts, nil
}

// newTaskList picks the list a task created here lands in
func (v *TaskListView) newTaskList() string {
	if v.source.Tag == nil && v.source.Writable() {
		return v.source.ListID
	}
	return models.SmartInbox
}

func (v *TaskListView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.err = fmt.Errorf("a title is required")
		return nil
	}
	due, err := v.parseDue()
	if err != nil {
		v.err = err
		return nil
	}
	priority, _ := strconv.Atoi(strings.TrimSpace(v.editPriority.Value()))

	var task models.Task
	switch {
	case v.editingNew && v.editParent != nil:
		sub, err := v.db.CreateSubtask(*v.editParent, title)
		if err != nil {
			v.err = err
			return nil
		}
		task = *sub
	case v.editingNew:
		task = models.NewTask(title, v.newTaskList())
	default:
		cur, ok := v.current()
		if !ok {
			v.editing = false
			return nil
		}
		task = cur
	}

	task.Title = title
	task.Description = strings.TrimSpace(v.editDesc.Value())
	task.Priority = models.PriorityFromInt(priority)
	task.DueDate = due
	task.Tags = v.editTags

	if v.editingNew && v.editParent == nil {
		task.Order = len(v.tasks)
		_, err = v.db.CreateTask(task)
	} else {
		_, err = v.db.UpdateTask(task)
	}
	if err != nil {
		v.err = err
		return nil
	}

	v.editing = false
	v.err = nil
	return v.loadTasks
}

// View renders the view
func (v *TaskListView) View() string {
	switch {
	case v.showHelpPopup:
		return v.renderHelpPopup()
	case v.confirming != confirmNone:
		return v.renderConfirm()
	case v.editing:
		return v.renderEditForm()
	case v.viewingTask:
		return v.renderTaskView()
	case v.assigningTags:
		return v.renderTagAssignment()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	if v.err != nil {
		b.WriteString("\n" + v.styles.ErrorText.Render("Error: "+v.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-8, 10, 30)).Render(v.searchInput.View())

	tagStyle := s.Button
	if v.focus == FocusTagDropdown {
		tagStyle = s.ButtonFocused
	}
	tagLabel := "All"
	if v.filterTag != nil {
		if t, ok := v.tagByID(*v.filterTag); ok {
			tagLabel = "#" + t.Name
		}
	}
	if !isNarrow {
		tagLabel = "Tags: " + tagLabel
	}
	tagBtn := tagStyle.Render(tagLabel + " ▼")

	titleText := strings.TrimSpace(v.source.Icon + " " + v.source.Name)
	if v.showCompleted && !v.source.IsTrash() && v.source.ListID != models.SmartCompleted {
		titleText += " (with completed)"
	}

	var header string
	if isNarrow {
		header = lipgloss.JoinVertical(lipgloss.Left, searchBox, tagBtn)
	} else {
		backStyle := s.Button
		if v.focus == FocusBackButton {
			backStyle = s.ButtonFocused
		}
		header = lipgloss.JoinHorizontal(lipgloss.Center,
			backStyle.Render("← Lists"), "  ", searchBox, "  ", tagBtn,
		)
	}

	if v.tagDropdownOpen {
		header += "\n" + v.renderTagDropdown()
	}
	return lipgloss.JoinVertical(lipgloss.Left, s.Title.Render(titleText), header)
}

func (v *TaskListView) renderTagDropdown() string {
	s := v.styles
	items := make([]string, 0, len(v.tags)+1)

	allStyle := s.ListItem
	if v.tagCursor == 0 {
		allStyle = s.ListSelected
	}
	items = append(items, allStyle.Render("All"))

	for i, tag := range v.tags {
		itemStyle := s.ListItem
		if v.tagCursor == i+1 {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(tagDot(tag)+" "+tag.Name))
	}
	return s.SearchBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func tagDot(t models.Tag) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render("●")
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	if len(v.tasks) == 0 {
		switch {
		case v.source.IsTrash():
			return s.TitleMuted.Render("Trash is empty.")
		case strings.TrimSpace(v.searchInput.Value()) != "":
			return s.TitleMuted.Render("No matching tasks.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	items := make([]string, 0, end-v.scrollY)
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) checkbox(t models.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func (v *TaskListView) priorityMark(p models.Priority) string {
	marks := [...]string{"", "!", "!!", "!!!"}
	if p <= models.PriorityNone || int(p) >= len(marks) {
		return ""
	}
	return v.styles.Priority[p].Render(marks[p]) + " "
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	title := task.Title
	if task.Completed {
		title = s.Done.Render(title)
	}
	if task.ParentID != nil {
		title = "↳ " + title
	}
	titleLine := v.checkbox(task) + " " + v.priorityMark(task.Priority) + title

	var meta []string
	if task.DueDate != nil {
		due := timeparse.Format(task.DueDate, v.loc)
		if !task.Completed && *task.DueDate < time.Now().Unix() {
			due = s.Overdue.Render(due)
		}
		meta = append(meta, due)
	}
	for _, id := range task.Tags {
		if t, ok := v.tagByID(id); ok {
			meta = append(meta, s.Tag.Render("#"+t.Name))
		}
	}
	metaLine := s.TitleMuted.Render("no tags")
	if len(meta) > 0 {
		metaLine = strings.Join(meta, " ")
	}

	rowStyle := s.ListItem.Width(width)
	if selected {
		rowStyle = s.ListSelected.Width(width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rowStyle.Render(titleLine), rowStyle.Render(metaLine)) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "Edit Task"
	switch {
	case v.editingNew && v.editParent != nil:
		formTitle = "New Subtask"
	case v.editingNew:
		formTitle = "New Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}
	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		fieldStyle(fieldDesc).Render(v.editDesc.View()),
		"",
		"Priority (0 none, 1 low, 2 medium, 3 high):",
		fieldStyle(fieldPriority).Width(10).Render(v.editPriority.View()),
		"",
		"Due:",
		fieldStyle(fieldDue).Width(inputWidth).Render(v.editDue.View()),
		"",
		"Tags:",
		v.renderEditTagSelector(fieldStyle(fieldTags), inputWidth),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Space/↵: toggle tag • Ctrl+S: save • Esc: cancel"),
	}
	if v.err != nil {
		rows = append(rows, s.ErrorText.Render(v.err.Error()))
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderEditTagSelector(container lipgloss.Style, width int) string {
	s := v.styles
	if len(v.tags) == 0 {
		return container.Width(width).Render(s.TitleMuted.Render("No tags available"))
	}

	items := make([]string, 0, len(v.tags))
	for i, tag := range v.tags {
		box := "[ ]"
		for _, id := range v.editTags {
			if id == tag.ID {
				box = "[x]"
				break
			}
		}
		text := box + " " + tagDot(tag) + " " + tag.Name
		if v.editFocusIdx == fieldTags && i == v.editTagCursor {
			items = append(items, s.ListSelected.Render(text))
		} else {
			items = append(items, s.ListItem.Render(text))
		}
	}
	return container.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

// helpEntries lists the shortcuts for the current source
func (v *TaskListView) helpEntries() [][2]string {
	completed := "show done"
	if v.showCompleted {
		completed = "hide done"
	}
	if v.source.IsTrash() {
		return [][2]string{
			{"↵", "view"}, {"r", "restore"}, {"D", "delete forever"},
			{"E", "empty trash"}, {"/", "search"}, {"esc", "back"}, {"q", "quit"},
		}
	}
	return [][2]string{
		{"↵", "view"}, {"space", "done"}, {"n", "new"}, {"s", "subtask"}, {"e", "edit"},
		{"d", "delete"}, {"K/J", "move"}, {"t", "tags"}, {"/", "search"},
		{"f", "filter"}, {"c", completed}, {"esc", "back"}, {"q", "quit"},
	}
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	if w := styles.ContentWidth(v.width); w > 0 && w < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	parts := make([]string, 0, len(v.helpEntries()))
	for _, e := range v.helpEntries() {
		parts = append(parts, s.HelpKey.Render(e[0])+" "+e[1])
	}
	return s.Help.Width(styles.ContentWidth(v.width)).Render(strings.Join(parts, " • "))
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	rows := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, e := range v.helpEntries() {
		rows = append(rows, s.HelpKey.Render(fmt.Sprintf("%-7s", e[0]))+s.HelpDesc.Render(e[1]))
	}
	rows = append(rows, "", s.TitleMuted.Render("Press any key to close"))
	return v.popup(s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (v *TaskListView) renderTagAssignment() string {
	s := v.styles
	task, ok := v.current()
	if !ok {
		return ""
	}

	items := make([]string, 0, len(v.tags))
	for i, tag := range v.tags {
		itemStyle := s.ListItem
		if i == v.assignTagCursor {
			itemStyle = s.ListSelected
		}
		box := "[ ]"
		if task.HasTag(tag.ID) {
			box = "[x]"
		}
		items = append(items, itemStyle.Render(box+" "+tagDot(tag)+" "+tag.Name))
	}
	if len(items) == 0 {
		items = append(items, s.TitleMuted.Render("No tags yet. Create one with `dida tag add`."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Tags for: "+task.Title),
		"",
		lipgloss.JoinVertical(lipgloss.Left, items...),
		"",
		s.TitleMuted.Render("Enter/Space: toggle • Esc: done"),
	)
	return v.popup(s.Popup.Render(content))
}

func (v *TaskListView) renderConfirm() string {
	s := v.styles
	var title, detail string
	switch v.confirming {
	case confirmDelete:
		title, detail = "Move to Trash?", fmt.Sprintf("%q can be restored from the trash.", v.target.Title)
	case confirmPurge:
		title, detail = "Delete Forever?", fmt.Sprintf("%q and its subtasks will be gone for good.", v.target.Title)
	case confirmEmptyTrash:
		title, detail = "Empty Trash?", fmt.Sprintf("%d task(s) will be gone for good.", len(v.tasks))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonFocused.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return v.popup(content)
}

func (v *TaskListView) popup(content string) string {
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderTaskView() string {
	task, ok := v.current()
	if !ok {
		return ""
	}
	s := v.styles
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	label := s.TitleMuted

	status := "Open"
	switch {
	case task.IsDeleted:
		status = "In trash"
	case task.Completed:
		status = "Completed " + timeparse.Format(task.CompletedAt, v.loc)
	}

	var tagStrs []string
	for _, id := range task.Tags {
		if t, ok := v.tagByID(id); ok {
			tagStrs = append(tagStrs, s.Tag.Render("#"+t.Name))
		}
	}
	tagsLine := "None"
	if len(tagStrs) > 0 {
		tagsLine = strings.Join(tagStrs, " ")
	}

	due := "None"
	if task.DueDate != nil {
		due = timeparse.Format(task.DueDate, v.loc)
	}
	reminder := "None"
	if task.Reminder != nil {
		reminder = timeparse.Format(task.Reminder, v.loc)
	}

	desc := task.Description
	if desc == "" {
		desc = s.TitleMuted.Render("No description")
	}

	subs := s.TitleMuted.Render("No subtasks")
	if len(v.viewSubtasks) > 0 {
		lines := make([]string, 0, len(v.viewSubtasks))
		for _, sub := range v.viewSubtasks {
			title := sub.Title
			if sub.Completed {
				title = s.Done.Render(title)
			}
			lines = append(lines, v.checkbox(sub)+" "+title)
		}
		subs = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	help := "e edit • space done • s subtask • t tags • d delete • esc back"
	if v.source.IsTrash() {
		help = "r restore • esc back"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(task.Title),
		label.Render("Status"), status,
		"",
		label.Render("Priority"), s.Priority[task.Priority].Render(task.Priority.String()),
		"",
		label.Render("Due"), due,
		"",
		label.Render("Reminder"), reminder,
		"",
		label.Render("Tags"), tagsLine,
		"",
		label.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(desc),
		"",
		label.Render("Subtasks"), subs,
		"",
		s.Help.Render(help),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
