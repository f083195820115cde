package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tgienger/dida/internal/config"
	"github.com/tgienger/dida/internal/db"
	"github.com/tgienger/dida/internal/logging"
	"github.com/tgienger/dida/internal/timeparse"
	"github.com/tgienger/dida/internal/ui"
	"github.com/tgienger/dida/internal/ui/styles"
	"golang.org/x/term"
)

// app carries the state shared by every command after bootstrap
type app struct {
	// Global flags
	configPath string
	dbPath     string
	verbose    bool
	jsonOut    bool

	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
	db     *db.DB

	now   func() time.Time
	loc   *time.Location
	dates *timeparse.Parser

	// isTerminal reports whether stdin and stdout are a TTY
	isTerminal func() bool
}

func newApp() *app {
	return &app{
		now:    time.Now,
		loc:    time.Local,
		dates:  timeparse.New(time.Local),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		closer: io.NopCloser(nil),
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

// bootstrap loads config, opens the log file and the database. Commands
// that never touch storage skip it.
func (a *app) bootstrap(cmd *cobra.Command, args []string) error {
	if cmd.Annotations["storage"] == "none" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	a.log, a.closer = logger, closer
	a.log.Debug("starting", "command", cmd.CommandPath(), "db", cfg.DBPath, "config", cfg.File)
	if _, ok := styles.ThemeByName(cfg.UI.Theme); !ok {
		a.log.Warn("unknown theme, using dark", "theme", cfg.UI.Theme)
	}
	setTheme(styles.Apply(cfg.UI.Theme))

	database, err := db.Open(cfg.DBPath, db.WithLogger(logger), db.WithClock(a.now), db.WithLocation(a.loc))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = database

	seeded, err := a.db.SeedDefaultLists()
	if err != nil {
		return err
	}
	if seeded {
		a.log.Info("seeded default lists")
	}
	return nil
}

func (a *app) shutdown() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("close database", "err", err)
		}
		a.db = nil
	}
	a.closer.Close()
}

// newRootCmd builds the dida command tree around a
func newRootCmd(a *app, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dida",
		Short: "dida - lists, tags and tasks in your terminal",
		Long: `dida keeps tasks in a local SQLite database.

Run without arguments on a terminal to open the interactive UI, or use the
subcommands to script it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.bootstrap,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.isTerminal() {
				return cmd.Help()
			}
			p := tea.NewProgram(ui.NewApp(a.db, a.cfg.UI.Theme, a.loc), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
	rootCmd.Version = version

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/dida/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database file (overrides db_path)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print JSON instead of text")

	rootCmd.AddCommand(newTaskCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newTagCmd(a))
	rootCmd.AddCommand(newRemindCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newVersionCmd(version))
	return rootCmd
}

// Execute runs the root command and closes whatever bootstrap opened
func Execute(version string) error {
	a := newApp()
	rootCmd := newRootCmd(a, version)
	defer a.shutdown()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
