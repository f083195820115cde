package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/dida/internal/models"
	"github.com/tgienger/dida/internal/timeparse"
	"github.com/tgienger/dida/internal/ui/styles"
)

var headerStyle, dimStyle, doneStyle, tagStyle, okStyle lipgloss.Style

func init() { setTheme(styles.Current) }

// setTheme rebuilds the output styles from t
func setTheme(t styles.Theme) {
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	dimStyle = lipgloss.NewStyle().Foreground(t.ForegroundDim)
	doneStyle = lipgloss.NewStyle().Foreground(t.ForegroundDim).Strikethrough(true)
	tagStyle = lipgloss.NewStyle().Foreground(t.Accent)
	okStyle = lipgloss.NewStyle().Foreground(t.Success)
}

func priorityMarker(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return lipgloss.NewStyle().Foreground(styles.Current.Error).Render("!!!")
	case models.PriorityMedium:
		return lipgloss.NewStyle().Foreground(styles.Current.Warning).Render("!! ")
	case models.PriorityLow:
		return lipgloss.NewStyle().Foreground(styles.Current.Info).Render("!  ")
	}
	return "   "
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tagNames maps tag ids to names for display
func (a *app) tagNames() (map[string]string, error) {
	tags, err := a.db.ListTags()
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return names, nil
}

func (a *app) printTasks(w io.Writer, tasks []models.Task) error {
	if a.jsonOut {
		return writeJSON(w, tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No tasks."))
		return nil
	}

	names, err := a.tagNames()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Fprintln(w, a.taskLine(t, names))
	}
	return nil
}

func (a *app) taskLine(t models.Task, tagNames map[string]string) string {
	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = okStyle.Render("[x]")
		title = doneStyle.Render(title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s ", dimStyle.Render(shortID(t.ID)), check, priorityMarker(t.Priority))
	if t.ParentID != nil {
		b.WriteString(dimStyle.Render("↳ "))
	}
	b.WriteString(title)
	if due := timeparse.Format(t.DueDate, a.loc); due != "" {
		b.WriteString(dimStyle.Render("  due " + due))
	}
	for _, id := range t.Tags {
		b.WriteString(" " + tagStyle.Render("#"+tagNames[id]))
	}
	return b.String()
}

func (a *app) printTaskDetail(w io.Writer, t *models.Task, subtasks []models.Task) error {
	if a.jsonOut {
		return writeJSON(w, struct {
			*models.Task
			Subtasks []models.Task `json:"subtasks"`
		}{t, subtasks})
	}

	names, err := a.tagNames()
	if err != nil {
		return err
	}
	list, err := a.db.GetList(t.ListID)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, headerStyle.Render(t.Title))
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-11s %s\n", dimStyle.Render(label), value)
		}
	}
	row("id", t.ID)
	row("list", list.Icon+" "+list.Name)
	row("priority", t.Priority.String())
	row("due", timeparse.Format(t.DueDate, a.loc))
	row("reminder", timeparse.Format(t.Reminder, a.loc))
	if t.Repeat != nil {
		row("repeat", fmt.Sprintf("%s every %d", t.Repeat.Type, max(t.Repeat.Interval, 1)))
	}
	if len(t.Tags) > 0 {
		tags := make([]string, len(t.Tags))
		for i, id := range t.Tags {
			tags[i] = "#" + names[id]
		}
		row("tags", tagStyle.Render(strings.Join(tags, " ")))
	}
	switch {
	case t.IsDeleted:
		row("status", "in trash")
	case t.Completed:
		row("status", "completed "+timeparse.Format(t.CompletedAt, a.loc))
	default:
		row("status", "open")
	}
	if t.Description != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
	if len(subtasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Subtasks"))
		for _, s := range subtasks {
			fmt.Fprintln(w, "  "+a.taskLine(s, names))
		}
	}
	return nil
}

// done prints a one-line confirmation, or the affected entity as JSON
func (a *app) done(w io.Writer, v any, format string, args ...any) error {
	if a.jsonOut {
		return writeJSON(w, v)
	}
	fmt.Fprintln(w, okStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
	return nil
}
