package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
)

// resolveList accepts a list id or a case-insensitive list name. An empty
// argument means the inbox.
func (a *app) resolveList(arg string) (*models.List, error) {
	if arg == "" {
		arg = models.SmartInbox
	}
	l, err := a.db.GetList(arg)
	if err == nil {
		return l, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	lists, err := a.db.ListLists()
	if err != nil {
		return nil, err
	}
	var match *models.List
	for i := range lists {
		if strings.EqualFold(lists[i].Name, arg) {
			if match != nil {
				return nil, fmt.Errorf("list name %q is ambiguous, use the id", arg)
			}
			match = &lists[i]
		}
	}
	if match == nil {
		return nil, &db.NotFoundError{Kind: "list", ID: arg}
	}
	return match, nil
}

// resolveTag accepts a tag id or name
func (a *app) resolveTag(arg string) (*models.Tag, error) {
	t, err := a.db.GetTag(arg)
	if err == nil || !db.IsNotFound(err) {
		return t, err
	}
	return a.db.GetTagByName(arg)
}

func (a *app) resolveTags(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		t, err := a.resolveTag(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// resolveTask accepts a full task id or a unique prefix of one, trashed
// tasks included
func (a *app) resolveTask(arg string) (*models.Task, error) {
	t, err := a.db.GetTask(arg)
	if err == nil || !db.IsNotFound(err) {
		return t, err
	}

	live, err := a.db.ListTasks()
	if err != nil {
		return nil, err
	}
	trash, err := a.db.ListTasksByList(models.SmartTrash)
	if err != nil {
		return nil, err
	}

	var match *models.Task
	for _, candidates := range [][]models.Task{live, trash} {
		for i := range candidates {
			if !strings.HasPrefix(candidates[i].ID, arg) {
				continue
			}
			if match != nil {
				return nil, fmt.Errorf("task id prefix %q is ambiguous", arg)
			}
			match = &candidates[i]
		}
	}
	if match == nil {
		return nil, &db.NotFoundError{Kind: "task", ID: arg}
	}
	return match, nil
}

// parsePriority accepts none|low|medium|high or 0-3
func parsePriority(s string) (models.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return models.PriorityNone, nil
	case "low":
		return models.PriorityLow, nil
	case "medium", "med":
		return models.PriorityMedium, nil
	case "high":
		return models.PriorityHigh, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 3 {
		return models.PriorityNone, fmt.Errorf("invalid priority %q (want none, low, medium, high or 0-3)", s)
	}
	return models.Priority(n), nil
}

// parseWhen turns a --due or --remind value into Unix seconds. "none"
// clears the field.
func (a *app) parseWhen(s string) (*int64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "clear":
		return nil, nil
	}
	ts, err := a.dates.ParseUnix(s, a.now())
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &ts, nil
}

// parseRepeat turns a --repeat value into a rule; "none" clears it
func parseRepeat(s string, interval int) (*models.RepeatRule, error) {
	typ, err := models.ParseRepeatType(s)
	if err != nil {
		return nil, err
	}
	if typ == models.RepeatNone {
		return nil, nil
	}
	if interval < 1 {
		interval = 1
	}
	return &models.RepeatRule{Type: typ, Interval: interval}, nil
}
