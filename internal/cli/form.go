package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tgienger/dida/internal/models"
)

// taskInput is what the interactive add form collects
type taskInput struct {
	Title       string
	Description string
	ListID      string
	Priority    string
	Due         string
}

// listOptions offers the inbox and every user list
func listOptions(lists []models.List) []huh.Option[string] {
	opts := []huh.Option[string]{}
	for _, l := range lists {
		if kind := models.ResolveList(l.ID).Kind; kind != models.KindUser && kind != models.KindInbox {
			continue
		}
		opts = append(opts, huh.NewOption(l.Icon+" "+l.Name, l.ID))
	}
	return opts
}

func (a *app) runTaskForm(defaultList string) (*taskInput, error) {
	lists, err := a.db.ListLists()
	if err != nil {
		return nil, err
	}

	in := &taskInput{ListID: models.SmartInbox, Priority: "none"}
	if defaultList != "" {
		l, err := a.writableList(defaultList)
		if err != nil {
			return nil, err
		}
		in.ListID = l.ID
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&in.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&in.Description),
			huh.NewSelect[string]().
				Title("List").
				Options(listOptions(lists)...).
				Value(&in.ListID),
			huh.NewSelect[string]().
				Title("Priority").
				Options(huh.NewOptions("none", "low", "medium", "high")...).
				Value(&in.Priority),
			huh.NewInput().
				Title("Due").
				Placeholder("tomorrow 5pm, 2026-03-10, or empty").
				Value(&in.Due).
				Validate(func(s string) error {
					_, err := a.parseWhen(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return in, nil
}
