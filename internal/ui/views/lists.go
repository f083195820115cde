package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
	"github.com/tgienger/dida/internal/ui/keys"
	"github.com/tgienger/dida/internal/ui/styles"
)

// Source is what a task view shows: a list (smart or user) or a tag
type Source struct {
	ListID string
	Tag    *models.Tag
	Name   string
	Icon   string
}

// Key identifies the source in the settings table
func (s Source) Key() string {
	if s.Tag != nil {
		return "tag:" + s.Tag.ID
	}
	return "list:" + s.ListID
}

// IsTrash reports whether the source is the trash smart list
func (s Source) IsTrash() bool {
	return s.Tag == nil && s.ListID == models.SmartTrash
}

// Writable reports whether new tasks can be added to the source.
// Computed smart lists have no list id of their own; tags land in the inbox.
func (s Source) Writable() bool {
	if s.Tag != nil {
		return true
	}
	return s.ListID == models.SmartInbox || !models.IsSmartID(s.ListID)
}

// SourceFromList returns the source for a list row
func SourceFromList(l models.List) Source {
	return Source{ListID: l.ID, Name: l.Name, Icon: l.Icon}
}

// SourceFromTag returns the source for a tag row
func SourceFromTag(t models.Tag) Source {
	return Source{Tag: &t, Name: "#" + t.Name}
}

type itemKind int

const (
	itemHeader itemKind = iota
	itemList
	itemTag
)

type sidebarItem struct {
	kind  itemKind
	label string
	list  models.List
	tag   models.Tag
	count int
	depth int
}

func (i sidebarItem) FilterValue() string { return i.label }

func (i sidebarItem) source() Source {
	if i.kind == itemTag {
		return SourceFromTag(i.tag)
	}
	return SourceFromList(i.list)
}

type sidebarDelegate struct {
	styles *styles.Styles
	width  int
}

func (d sidebarDelegate) Height() int                               { return 1 }
func (d sidebarDelegate) Spacing() int                              { return 0 }
func (d sidebarDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d sidebarDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(sidebarItem)
	if !ok {
		return
	}
	width := max(d.width-4, 20)

	if it.kind == itemHeader {
		fmt.Fprint(w, d.styles.TitleMuted.Padding(0, 1).Render(strings.ToUpper(it.label)))
		return
	}

	var line string
	switch it.kind {
	case itemList:
		line = it.list.Icon + " " + it.list.Name
		if it.count > 0 {
			line += d.styles.TitleMuted.Render(fmt.Sprintf(" (%d)", it.count))
		}
	case itemTag:
		line = strings.Repeat("  ", it.depth) + d.styles.Tag.Render("#"+it.tag.Name)
		if it.tag.IsPinned {
			line += " 📌"
		}
	}

	style := d.styles.ListItem
	if index == m.Index() {
		style = d.styles.ListSelected
	}
	fmt.Fprint(w, style.Width(width).Render(line))
}

// ListsView is the sidebar of smart lists, user lists and tags
type ListsView struct {
	db       *db.DB
	list     list.Model
	delegate *sidebarDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	err      error

	creating bool
	newName  textinput.Model
	newIcon  textinput.Model
	focusIdx int // 0=name, 1=icon, 2=confirm

	confirmingDelete bool
	deleteTarget     models.List

	showHelpPopup bool
}

// NewListsView creates the sidebar view
func NewListsView(database *db.DB) *ListsView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "List name"
	newName.CharLimit = 100

	newIcon := textinput.New()
	newIcon.Placeholder = "📁"
	newIcon.CharLimit = 8

	delegate := &sidebarDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Dida"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ListsView{
		db:       database,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newIcon:  newIcon,
	}
}

type listsLoadedMsg struct {
	items []list.Item
}

// SelectedSource asks the app to open a task view
type SelectedSource struct {
	Source Source
}

// Init loads the sidebar
func (v *ListsView) Init() tea.Cmd {
	return v.load
}

func (v *ListsView) load() tea.Msg {
	smart, err := v.db.ListSmartLists()
	if err != nil {
		return errMsg{err}
	}
	user, err := v.db.ListUserLists()
	if err != nil {
		return errMsg{err}
	}
	counts, err := v.db.CountTasksByList()
	if err != nil {
		return errMsg{err}
	}
	tags, err := v.db.ListTags()
	if err != nil {
		return errMsg{err}
	}
	return listsLoadedMsg{items: sidebarItems(smart, user, counts, tags)}
}

// sidebarItems lays out smart lists, then user lists, then the tag tree
// with pinned roots first
func sidebarItems(smart, user []models.List, counts map[string]int, tags []models.Tag) []list.Item {
	var items []list.Item
	for _, l := range smart {
		items = append(items, sidebarItem{kind: itemList, label: l.Name, list: l, count: counts[l.ID]})
	}
	if len(user) > 0 {
		items = append(items, sidebarItem{kind: itemHeader, label: "Lists"})
		for _, l := range user {
			items = append(items, sidebarItem{kind: itemList, label: l.Name, list: l, count: counts[l.ID]})
		}
	}
	if len(tags) == 0 {
		return items
	}

	items = append(items, sidebarItem{kind: itemHeader, label: "Tags"})
	known := make(map[string]bool, len(tags))
	for _, t := range tags {
		known[t.ID] = true
	}
	children := make(map[string][]models.Tag)
	var pinned, roots []models.Tag
	for _, t := range tags {
		switch {
		case t.ParentID != nil && known[*t.ParentID]:
			children[*t.ParentID] = append(children[*t.ParentID], t)
		case t.IsPinned:
			pinned = append(pinned, t)
		default:
			roots = append(roots, t)
		}
	}
	var walk func(t models.Tag, depth int)
	walk = func(t models.Tag, depth int) {
		items = append(items, sidebarItem{kind: itemTag, label: t.Name, tag: t, depth: depth})
		for _, c := range children[t.ID] {
			walk(c, depth+1)
		}
	}
	for _, t := range append(pinned, roots...) {
		walk(t, 0)
	}
	return items
}

// Update handles messages
func (v *ListsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case listsLoadedMsg:
		v.list.SetItems(msg.items)
		v.loaded = true
		v.err = nil
		v.skipHeader(1)
		return v, nil

	case errMsg:
		v.err = msg.err
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newIcon.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Enter):
			if it, ok := v.selected(); ok {
				src := it.source()
				return v, func() tea.Msg { return SelectedSource{Source: src} }
			}
			return v, nil
		case key.Matches(msg, v.keys.Delete):
			if it, ok := v.selected(); ok && it.kind == itemList && !it.list.IsSmart {
				v.confirmingDelete = true
				v.deleteTarget = it.list
			}
			return v, nil
		case key.Matches(msg, v.keys.Pin):
			if it, ok := v.selected(); ok && it.kind == itemTag {
				return v, v.togglePin(it.tag)
			}
			return v, nil
		case key.Matches(msg, v.keys.Up):
			v.list.CursorUp()
			v.skipHeader(-1)
			return v, nil
		case key.Matches(msg, v.keys.Down):
			v.list.CursorDown()
			v.skipHeader(1)
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ListsView) selected() (sidebarItem, bool) {
	it, ok := v.list.SelectedItem().(sidebarItem)
	if !ok || it.kind == itemHeader {
		return sidebarItem{}, false
	}
	return it, true
}

// skipHeader moves the cursor off section headers in direction dir
func (v *ListsView) skipHeader(dir int) {
	n := len(v.list.Items())
	for range n {
		it, ok := v.list.SelectedItem().(sidebarItem)
		if !ok || it.kind != itemHeader {
			return
		}
		idx := v.list.Index() + dir
		if idx < 0 || idx >= n {
			dir = -dir
			idx = v.list.Index() + dir
		}
		v.list.Select(idx)
	}
}

func (v *ListsView) togglePin(t models.Tag) tea.Cmd {
	return func() tea.Msg {
		t.IsPinned = !t.IsPinned
		if _, err := v.db.UpdateTag(t); err != nil {
			return errMsg{err}
		}
		return v.load()
	}
}

func (v *ListsView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTarget.ID
		return v, func() tea.Msg {
			if err := v.db.DeleteList(id); err != nil {
				return errMsg{err}
			}
			return v.load()
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *ListsView) createList() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	if name == "" {
		return nil
	}
	icon := strings.TrimSpace(v.newIcon.Value())
	if icon == "" {
		icon = "📁"
	}
	order := 0
	for _, item := range v.list.Items() {
		if it, ok := item.(sidebarItem); ok && it.kind == itemList && !it.list.IsSmart {
			order = max(order, it.list.Order+1)
		}
	}

	l := models.NewList(name, icon, "#7aa2f7")
	l.Order = order
	created, err := v.db.CreateList(l)
	if err != nil {
		v.err = err
		return nil
	}
	v.creating = false
	src := SourceFromList(*created)
	return tea.Batch(v.load, func() tea.Msg { return SelectedSource{Source: src} })
}

func (v *ListsView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.createList()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createList()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newIcon, cmd = v.newIcon.Update(msg)
	}
	return v, cmd
}

func (v *ListsView) updateFocus() {
	v.newName.Blur()
	v.newIcon.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newIcon.Focus()
	}
}

// View renders the sidebar
func (v *ListsView) View() string {
	switch {
	case v.showHelpPopup:
		return v.renderHelpPopup()
	case v.confirmingDelete:
		return v.renderDeleteConfirm()
	case v.creating:
		return v.renderCreateForm()
	case !v.loaded && v.err == nil:
		return v.styles.TitleMuted.Render("Loading...")
	}

	content := v.list.View()
	if v.err != nil {
		content += "\n" + v.styles.ErrorText.Render("Error: "+v.err.Error())
	}
	content += "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ListsView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, iconStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		iconStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}
	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render("New List"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Icon:",
		iconStyle.Width(inputWidth).Render(v.newIcon.View()),
		"",
		btnStyle.Render(" Create "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
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

func (v *ListsView) renderHelp() string {
	s := v.styles
	if w := styles.ContentWidth(v.width); w > 0 && w < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(fmt.Sprintf("%s open • %s new list • %s delete • %s pin • %s quit",
		s.HelpKey.Render("↵"),
		s.HelpKey.Render("n"),
		s.HelpKey.Render("d"),
		s.HelpKey.Render("p"),
		s.HelpKey.Render("q"),
	))
}

func (v *ListsView) renderHelpPopup() string {
	s := v.styles
	rows := []string{
		s.Title.Render("Keyboard Shortcuts"),
		"",
		s.HelpKey.Render("↵") + "      open list or tag",
		s.HelpKey.Render("n") + "      new list",
		s.HelpKey.Render("d") + "      delete list and its tasks",
		s.HelpKey.Render("p") + "      pin or unpin tag",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}
	return v.popup(s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

func (v *ListsView) renderDeleteConfirm() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete List?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and every task in it will be removed.", v.deleteTarget.Name)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonFocused.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return v.popup(content)
}

func (v *ListsView) popup(content string) string {
	centered := lipgloss.Place(styles.ContentWidth(v.width), v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
