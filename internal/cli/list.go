package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/models"
)

func newListCmd(a *app) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Manage lists",
	}
	listCmd.AddCommand(
		newListAddCmd(a),
		newListLsCmd(a),
		newListEditCmd(a),
		newListRemoveCmd(a),
	)
	return listCmd
}

func newListAddCmd(a *app) *cobra.Command {
	var (
		icon, color string
		order       int
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := models.NewList(args[0], icon, color)
			l.Order = order
			l.CreatedAt = a.now().Unix()
			if !cmd.Flags().Changed("order") {
				// Append after everything already shown
				lists, err := a.db.ListLists()
				if err != nil {
					return err
				}
				for _, existing := range lists {
					l.Order = max(l.Order, existing.Order+1)
				}
			}

			created, err := a.db.CreateList(l)
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), created, "Created list %s %s", created.Icon, created.Name)
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "📁", "Icon")
	cmd.Flags().StringVar(&color, "color", "#7aa2f7", "Color")
	cmd.Flags().IntVar(&order, "order", 0, "Sort position")
	return cmd
}

// listRow is a list with its open task count, for ls output
type listRow struct {
	models.List
	Open int `json:"open"`
}

func newListLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show lists with their open task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := a.db.ListLists()
			if err != nil {
				return err
			}
			counts, err := a.db.CountTasksByList()
			if err != nil {
				return err
			}

			rows := make([]listRow, len(lists))
			for i, l := range lists {
				rows[i] = listRow{List: l, Open: counts[l.ID]}
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			w := cmd.OutOrStdout()
			smart := true
			fmt.Fprintln(w, headerStyle.Render("Smart lists"))
			for _, r := range rows {
				if smart && !r.IsSmart {
					smart = false
					fmt.Fprintln(w)
					fmt.Fprintln(w, headerStyle.Render("Lists"))
				}
				count := ""
				if r.Open > 0 {
					count = dimStyle.Render(fmt.Sprintf(" (%d)", r.Open))
				}
				fmt.Fprintf(w, "  %s %s%s  %s\n", r.Icon, r.Name, count, dimStyle.Render(r.ID))
			}
			return nil
		},
	}
}

// userList resolves arg and rejects the smart lists, which are restored
// on every start
func (a *app) userList(arg string) (*models.List, error) {
	l, err := a.resolveList(arg)
	if err != nil {
		return nil, err
	}
	if l.IsSmart || models.IsSmartID(l.ID) {
		return nil, fmt.Errorf("%s is a smart list and cannot be changed", l.Name)
	}
	return l, nil
}

func newListEditCmd(a *app) *cobra.Command {
	var (
		name, icon, color string
		order             int
	)
	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "Rename or restyle a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.userList(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				l.Name = name
			}
			if flags.Changed("icon") {
				l.Icon = icon
			}
			if flags.Changed("color") {
				l.Color = color
			}
			if flags.Changed("order") {
				l.Order = order
			}

			updated, err := a.db.UpdateList(*l)
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), updated, "Updated list %s %s", updated.Icon, updated.Name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	cmd.Flags().IntVar(&order, "order", 0, "New sort position")
	return cmd
}

func newListRemoveCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "rm <id|name>",
		Short: "Delete a list and all of its tasks",
		Long:  `Delete a list. Its tasks are deleted permanently, not moved to the trash.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.userList(args[0])
			if err != nil {
				return err
			}
			tasks, err := a.db.ListTasksByList(l.ID)
			if err != nil {
				return err
			}
			if len(tasks) > 0 && !force {
				return fmt.Errorf("list %s has %d task(s); use --force to delete them with it", l.Name, len(tasks))
			}

			if err := a.db.DeleteList(l.ID); err != nil {
				return err
			}
			a.log.Info("list deleted", "id", l.ID, "tasks", len(tasks))
			return a.done(cmd.OutOrStdout(), l, "Deleted list %s", l.Name)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the list has tasks")
	return cmd
}
