package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/timeparse"
)

func newRemindCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Show open tasks whose reminder is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := a.now().Unix()
			if at != "" {
				ts, err := a.parseWhen(at)
				if err != nil {
					return err
				}
				if ts != nil {
					now = *ts
				}
			}

			tasks, err := a.db.ListDueReminders(now)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), tasks)
			}
			w := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(w, dimStyle.Render("Nothing to remind."))
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintf(w, "%s  %s %s\n", dimStyle.Render(timeparse.Format(t.Reminder, a.loc)), shortID(t.ID), t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Check as of this time instead of now")
	return cmd
}
