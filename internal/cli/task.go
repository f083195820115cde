package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/models"
)

func newTaskCmd(a *app) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}
	taskCmd.AddCommand(
		newTaskAddCmd(a),
		newTaskListCmd(a),
		newTaskShowCmd(a),
		newTaskEditCmd(a),
		newTaskDoneCmd(a),
		newTaskRemoveCmd(a),
		newTaskRestoreCmd(a),
		newTaskPurgeCmd(a),
		newTaskEmptyTrashCmd(a),
		newTaskMoveCmd(a),
		newTaskSubCmd(a),
		newTaskSearchCmd(a),
	)
	return taskCmd
}

// writableList resolves arg to a list that can own tasks: the inbox or a
// user list
func (a *app) writableList(arg string) (*models.List, error) {
	l, err := a.resolveList(arg)
	if err != nil {
		return nil, err
	}
	if kind := models.ResolveList(l.ID).Kind; kind != models.KindUser && kind != models.KindInbox {
		return nil, fmt.Errorf("%s is a smart list; tasks can only be added to the inbox or a user list", l.Name)
	}
	return l, nil
}

func newTaskAddCmd(a *app) *cobra.Command {
	var (
		list, desc, priority, due, remind, repeat string
		interval                                   int
		tags                                       []string
	)
	cmd := &cobra.Command{
		Use:   "add [title...]",
		Short: "Add a task",
		Long: `Add a task. Without a title on a terminal an interactive form opens.

--due and --remind accept natural language such as "tomorrow 5pm" as well
as 2006-01-02, "2006-01-02 15:04" and RFC 3339.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				if !a.isTerminal() {
					return errors.New("a title is required")
				}
				input, err := a.runTaskForm(list)
				if err != nil {
					return err
				}
				title, desc, list, priority, due = input.Title, input.Description, input.ListID, input.Priority, input.Due
			}

			l, err := a.writableList(list)
			if err != nil {
				return err
			}
			task := models.NewTask(title, l.ID)
			task.Description = desc
			if task.Priority, err = parsePriority(priority); err != nil {
				return err
			}
			if task.DueDate, err = a.parseWhen(due); err != nil {
				return err
			}
			if task.Reminder, err = a.parseWhen(remind); err != nil {
				return err
			}
			if repeat != "" {
				if task.Repeat, err = parseRepeat(repeat, interval); err != nil {
					return err
				}
			}
			if task.Tags, err = a.resolveTags(tags); err != nil {
				return err
			}
			task.CreatedAt = a.now().Unix()
			task.UpdatedAt = task.CreatedAt

			created, err := a.db.CreateTask(task)
			if err != nil {
				return err
			}
			a.log.Info("task created", "id", created.ID, "list", created.ListID)
			return a.done(cmd.OutOrStdout(), created, "Added %s %s", shortID(created.ID), created.Title)
		},
	}
	cmd.Flags().StringVarP(&list, "list", "l", "", "List id or name (default Inbox)")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "none", "Priority: none, low, medium, high")
	cmd.Flags().StringVar(&due, "due", "", "Due date")
	cmd.Flags().StringVar(&remind, "remind", "", "Reminder time")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Repeat: daily, weekly, monthly, yearly, weekday")
	cmd.Flags().IntVar(&interval, "every", 1, "Repeat interval")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag name or id (repeatable)")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var list, tag string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks",
		Long: `List tasks. Without flags every task outside the trash is shown.
Smart lists work by id or name, e.g. --list today or --list smart_trash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tasks []models.Task
				err   error
			)
			switch {
			case tag != "":
				t, rerr := a.resolveTag(tag)
				if rerr != nil {
					return rerr
				}
				tasks, err = a.db.ListTasksByTag(t.ID)
			case list != "":
				l, rerr := a.resolveList(list)
				if rerr != nil {
					return rerr
				}
				tasks, err = a.db.ListTasksByList(l.ID)
			default:
				tasks, err = a.db.ListTasks()
			}
			if err != nil {
				return err
			}
			return a.printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVarP(&list, "list", "l", "", "List id or name")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Tag name or id")
	return cmd
}

func newTaskShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}
			subtasks, err := a.db.ListSubtasks(task.ID)
			if err != nil {
				return err
			}
			return a.printTaskDetail(cmd.OutOrStdout(), task, subtasks)
		},
	}
}

func newTaskEditCmd(a *app) *cobra.Command {
	var (
		title, desc, list, priority, due, remind, repeat string
		interval                                         int
		tags, addTags, rmTags                            []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long:  `Edit a task. Only the flags given are changed; --due none clears a date.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()

			if flags.Changed("title") {
				if strings.TrimSpace(title) == "" {
					return errors.New("title cannot be empty")
				}
				task.Title = title
			}
			if flags.Changed("desc") {
				task.Description = desc
			}
			if flags.Changed("list") {
				l, err := a.writableList(list)
				if err != nil {
					return err
				}
				task.ListID = l.ID
			}
			if flags.Changed("priority") {
				if task.Priority, err = parsePriority(priority); err != nil {
					return err
				}
			}
			if flags.Changed("due") {
				if task.DueDate, err = a.parseWhen(due); err != nil {
					return err
				}
			}
			if flags.Changed("remind") {
				if task.Reminder, err = a.parseWhen(remind); err != nil {
					return err
				}
			}
			if flags.Changed("repeat") {
				if task.Repeat, err = parseRepeat(repeat, interval); err != nil {
					return err
				}
			}
			if flags.Changed("tag") {
				if task.Tags, err = a.resolveTags(tags); err != nil {
					return err
				}
			}
			if len(addTags) > 0 || len(rmTags) > 0 {
				add, err := a.resolveTags(addTags)
				if err != nil {
					return err
				}
				rm, err := a.resolveTags(rmTags)
				if err != nil {
					return err
				}
				task.Tags = mergeTags(task.Tags, add, rm)
			}

			updated, err := a.db.UpdateTask(*task)
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), updated, "Updated %s %s", shortID(updated.ID), updated.Title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "New description")
	cmd.Flags().StringVarP(&list, "list", "l", "", "Move to list id or name")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: none, low, medium, high")
	cmd.Flags().StringVar(&due, "due", "", "Due date, or none")
	cmd.Flags().StringVar(&remind, "remind", "", "Reminder time, or none")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Repeat type, or none")
	cmd.Flags().IntVar(&interval, "every", 1, "Repeat interval")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace tags (repeatable)")
	cmd.Flags().StringSliceVar(&addTags, "add-tag", nil, "Add a tag (repeatable)")
	cmd.Flags().StringSliceVar(&rmTags, "rm-tag", nil, "Remove a tag (repeatable)")
	return cmd
}

// mergeTags returns current plus add minus rm, without duplicates
func mergeTags(current, add, rm []string) []string {
	drop := make(map[string]bool, len(rm))
	for _, id := range rm {
		drop[id] = true
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, id := range append(append([]string{}, current...), add...) {
		if drop[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func newTaskDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>...",
		Aliases: []string{"toggle"},
		Short:   "Toggle completion; completing a task also completes its subtasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toggled []*models.Task
			for _, arg := range args {
				task, err := a.resolveTask(arg)
				if err != nil {
					return err
				}
				t, err := a.db.ToggleTask(task.ID)
				if err != nil {
					return err
				}
				toggled = append(toggled, t)
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), toggled)
			}
			for _, t := range toggled {
				state := "Reopened"
				if t.Completed {
					state = "Completed"
				}
				a.done(cmd.OutOrStdout(), t, "%s %s %s", state, shortID(t.ID), t.Title)
			}
			return nil
		},
	}
}

// eachTask applies fn to every resolved id argument
func (a *app) eachTask(args []string, fn func(*models.Task) error) error {
	for _, arg := range args {
		task, err := a.resolveTask(arg)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
	}
	return nil
}

func newTaskRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Move tasks to the trash",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachTask(args, func(t *models.Task) error {
				if err := a.db.DeleteTask(t.ID); err != nil {
					return err
				}
				return a.done(cmd.OutOrStdout(), t, "Moved %s %s to the trash", shortID(t.ID), t.Title)
			})
		},
	}
}

func newTaskRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Take tasks back out of the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachTask(args, func(t *models.Task) error {
				if err := a.db.RestoreTask(t.ID); err != nil {
					return err
				}
				return a.done(cmd.OutOrStdout(), t, "Restored %s %s", shortID(t.ID), t.Title)
			})
		},
	}
}

func newTaskPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>...",
		Short: "Permanently delete tasks and their subtasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.eachTask(args, func(t *models.Task) error {
				if err := a.db.PurgeTask(t.ID); err != nil {
					return err
				}
				a.log.Info("task purged", "id", t.ID)
				return a.done(cmd.OutOrStdout(), t, "Deleted %s %s", shortID(t.ID), t.Title)
			})
		},
	}
}

func newTaskEmptyTrashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "empty-trash",
		Short: "Permanently delete everything in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.db.EmptyTrash()
			if err != nil {
				return err
			}
			a.log.Info("trash emptied", "deleted", n)
			return a.done(cmd.OutOrStdout(), map[string]int64{"deleted": n}, "Deleted %d task(s)", n)
		},
	}
}

func newTaskMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a task to a 1-based position within its list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}

			siblings, err := a.db.ListTasksByList(task.ListID)
			if err != nil {
				return err
			}
			orders := db.Reorder(siblings, task.ID, pos-1)
			if err := a.db.UpdateTaskOrders(orders); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), orders, "Moved %s to position %d", shortID(task.ID), min(pos, len(orders)))
		},
	}
}

func newTaskSubCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sub <parent-id> <title...>",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := a.resolveTask(args[0])
			if err != nil {
				return err
			}
			sub, err := a.db.CreateSubtask(parent.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), sub, "Added %s %s under %s", shortID(sub.ID), sub.Title, parent.Title)
		},
	}
}

func newTaskSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Search task titles and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.db.SearchTasks(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printTasks(cmd.OutOrStdout(), tasks)
		},
	}
}
