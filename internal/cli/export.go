package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/models"
	"gopkg.in/yaml.v3"
)

// snapshot is the export document
type snapshot struct {
	ExportedAt    time.Time     `json:"exported_at" yaml:"exported_at"`
	SchemaVersion int           `json:"schema_version" yaml:"schema_version"`
	Lists         []models.List `json:"lists" yaml:"lists"`
	Tags          []models.Tag  `json:"tags" yaml:"tags"`
	Tasks         []models.Task `json:"tasks" yaml:"tasks"`
	Trash         []models.Task `json:"trash" yaml:"trash"`
}

func (a *app) snapshot() (*snapshot, error) {
	s := &snapshot{ExportedAt: a.now().UTC().Truncate(time.Second)}
	var err error
	if s.SchemaVersion, err = a.db.SchemaVersion(); err != nil {
		return nil, err
	}
	if s.Lists, err = a.db.ListLists(); err != nil {
		return nil, err
	}
	if s.Tags, err = a.db.ListTags(); err != nil {
		return nil, err
	}
	if s.Tasks, err = a.db.ListTasks(); err != nil {
		return nil, err
	}
	if s.Trash, err = a.db.ListTasksByList(models.SmartTrash); err != nil {
		return nil, err
	}
	return s, nil
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every list, tag and task as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
			s, err := a.snapshot()
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if format == "yaml" {
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(s); err != nil {
					return err
				}
				return enc.Close()
			}
			return writeJSON(w, s)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
