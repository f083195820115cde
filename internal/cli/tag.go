package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/models"
)

func newTagCmd(a *app) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	tagCmd.AddCommand(
		newTagAddCmd(a),
		newTagLsCmd(a),
		newTagEditCmd(a),
		newTagRemoveCmd(a),
		newTagPinCmd(a),
	)
	return tagCmd
}

// parentRef resolves a --parent value; "none" makes the tag top-level
func (a *app) parentRef(arg string) (*string, error) {
	if arg == "" || strings.EqualFold(arg, "none") {
		return nil, nil
	}
	p, err := a.resolveTag(arg)
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

func newTagAddCmd(a *app) *cobra.Command {
	var (
		color, parent string
		pin           bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.NewTag(args[0], color)
			t.IsPinned = pin
			t.CreatedAt = a.now().Unix()
			var err error
			if t.ParentID, err = a.parentRef(parent); err != nil {
				return err
			}

			created, err := a.db.CreateTag(t)
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), created, "Created tag #%s", created.Name)
		},
	}
	cmd.Flags().StringVar(&color, "color", "#7dcfff", "Color")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent tag name or id")
	cmd.Flags().BoolVar(&pin, "pin", false, "Pin the tag")
	return cmd
}

func newTagLsCmd(a *app) *cobra.Command {
	var parent string
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show tags as a tree, pinned tags first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.listTags(parent)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), tags)
			}
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No tags."))
				return nil
			}
			printTagTree(cmd.OutOrStdout(), tags)
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Show only the direct children of this tag")
	return cmd
}

// listTags returns every tag, or only the direct children of parent
func (a *app) listTags(parent string) ([]models.Tag, error) {
	if parent == "" {
		return a.db.ListTags()
	}
	p, err := a.resolveTag(parent)
	if err != nil {
		return nil, err
	}
	return a.db.ListTagChildren(p.ID)
}

func printTagTree(w io.Writer, tags []models.Tag) {
	ids := make(map[string]bool, len(tags))
	children := make(map[string][]models.Tag)
	for _, t := range tags {
		ids[t.ID] = true
	}
	var roots, pinned []models.Tag
	for _, t := range tags {
		switch {
		case t.ParentID != nil && ids[*t.ParentID]:
			children[*t.ParentID] = append(children[*t.ParentID], t)
		case t.IsPinned:
			pinned = append(pinned, t)
		default:
			roots = append(roots, t)
		}
	}

	var walk func(t models.Tag, depth int)
	walk = func(t models.Tag, depth int) {
		pin := ""
		if t.IsPinned {
			pin = " 📌"
		}
		fmt.Fprintf(w, "%s%s%s  %s\n", strings.Repeat("  ", depth+1), tagStyle.Render("#"+t.Name), pin, dimStyle.Render(shortID(t.ID)))
		for _, c := range children[t.ID] {
			walk(c, depth+1)
		}
	}
	for _, t := range append(pinned, roots...) {
		walk(t, 0)
	}
}

func newTagEditCmd(a *app) *cobra.Command {
	var name, color, parent string
	cmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Rename, recolor or re-parent a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTag(args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				t.Name = name
			}
			if flags.Changed("color") {
				t.Color = color
			}
			if flags.Changed("parent") {
				if t.ParentID, err = a.parentRef(parent); err != nil {
					return err
				}
			}

			updated, err := a.db.UpdateTag(*t)
			if err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), updated, "Updated tag #%s", updated.Name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New color")
	cmd.Flags().StringVar(&parent, "parent", "", "New parent tag, or none")
	return cmd
}

func newTagRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name|id>",
		Short: "Delete a tag; tasks keep everything but the tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTag(args[0])
			if err != nil {
				return err
			}
			if err := a.db.DeleteTag(t.ID); err != nil {
				return err
			}
			return a.done(cmd.OutOrStdout(), t, "Deleted tag #%s", t.Name)
		},
	}
}

func newTagPinCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <name|id>",
		Short: "Toggle whether a tag is pinned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.resolveTag(args[0])
			if err != nil {
				return err
			}
			t.IsPinned = !t.IsPinned
			updated, err := a.db.UpdateTag(*t)
			if err != nil {
				return err
			}
			state := "Unpinned"
			if updated.IsPinned {
				state = "Pinned"
			}
			return a.done(cmd.OutOrStdout(), updated, "%s #%s", state, updated.Name)
		},
	}
}
