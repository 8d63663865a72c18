// Package main provides the CLI entrypoint for statsheet.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/statsheet/internal/config"
	"github.com/verte-zerg/statsheet/internal/model"
	"github.com/verte-zerg/statsheet/internal/state"
	"github.com/verte-zerg/statsheet/internal/store"
	"github.com/verte-zerg/statsheet/internal/transport"
	"github.com/verte-zerg/statsheet/internal/tui"
)

const dotenvFile = ".env"

var (
	flagEndpoint string
	flagFixture  string
	flagTimeout  time.Duration
	flagNoCache  bool
	flagCacheTTL time.Duration
	flagDebug    string

	rootRestore string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:           "statsheet [NAME...]",
		Short:         "Character stat sheet calculator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runRootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEndpoint, "endpoint", defaults.Endpoint, "GraphQL endpoint")
	flags.StringVar(&flagFixture, "fixture", "", "YAML fixture to read instead of the endpoint")
	flags.DurationVar(&flagTimeout, "timeout", defaults.Timeout, "per-request timeout")
	flags.BoolVar(&flagNoCache, "no-cache", false, "bypass the response cache")
	flags.DurationVar(&flagCacheTTL, "cache-ttl", defaults.CacheTTL, "response cache lifetime (0 keeps entries forever)")
	flags.StringVar(&flagDebug, "debug", "", "write debug logs to a file")
	flags.Lookup("debug").NoOptDefVal = config.DefaultDebugLogPath()

	rootCmd.Flags().StringVar(&rootRestore, "restore", "", "restore a saved snapshot before starting")

	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newSnapshotsCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(true, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	tr, err := buildTransport(cfg, st)
	if err != nil {
		return err
	}
	roster := state.New(tr)

	ctx := context.Background()
	if rootRestore != "" {
		if err := restoreSnapshot(ctx, st, roster, rootRestore, cfg.Timeout); err != nil {
			return err
		}
		cfg.SnapshotName = rootRestore
	}

	m := tui.NewModel(roster, st, cfg, args)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	if cfg.Autosave && roster.Len() > 0 {
		if err := st.SaveSnapshot(ctx, cfg.SnapshotName, roster.Snapshot(), time.Now()); err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
	}
	return nil
}

// restoreSnapshot loads the named snapshot into roster. Each unit gets one
// timeout for its lookup and fetch. Units that fail are reported and skipped.
func restoreSnapshot(ctx context.Context, st *store.Store, roster *state.Store, name string, timeout time.Duration) error {
	snap, ok, err := st.LoadSnapshot(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !ok {
		return fmt.Errorf("snapshot %q not found", name)
	}
	restoreCtx, cancel := context.WithTimeout(ctx, timeout*time.Duration(max(1, len(snap.Units))))
	defer cancel()
	if err := roster.Restore(restoreCtx, snap); err != nil {
		logErrf("some units could not be restored: %v\n", err)
	}
	return nil
}

// resolveConfig layers flags over the environment, the config file and
// defaults.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	cfg, err := config.Resolve(config.DefaultConfigPath(), dotenvFile)
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "endpoint", &cfg.Endpoint, flagEndpoint)
	applyStringFlag(cmd, "fixture", &cfg.Fixture, flagFixture)
	applyDurationFlag(cmd, "timeout", &cfg.Timeout, flagTimeout)
	applyDurationFlag(cmd, "cache-ttl", &cfg.CacheTTL, flagCacheTTL)
	if cmd.Flags().Changed("no-cache") {
		cfg.CacheEnabled = !flagNoCache
	}
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// buildTransport wires the data source over st. st may be nil when the
// database is unavailable, which disables the response cache.
func buildTransport(cfg model.Config, st *store.Store) (transport.Transport, error) {
	var cache transport.ResponseCache
	if st != nil {
		cache = st
	}
	tr, err := transport.FromConfig(cfg, cache)
	if err != nil {
		return nil, fmt.Errorf("failed to set up data source: %w", err)
	}
	return tr, nil
}

// setupLogging routes slog and the standard logger. The TUI owns the
// terminal, so without --debug its logs are discarded.
func setupLogging(interactive bool, stderr io.Writer) (func(), error) {
	if flagDebug != "" {
		if err := os.MkdirAll(filepath.Dir(flagDebug), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := tea.LogToFile(flagDebug, "statsheet")
		if err != nil {
			return nil, fmt.Errorf("failed to open debug log: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
		return func() {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close of the debug log.
				_ = cerr
			}
		}, nil
	}
	if interactive {
		log.SetOutput(io.Discard)
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() {}, nil
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	return func() {}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	d := config.Defaults()
	return fmt.Sprintf(`# statsheet configuration
# Values here are overridden by STATSHEET_* environment variables and CLI flags.

[source]
endpoint = %q
# fixture = "/path/to/fixture.yaml"
timeout = %q

[cache]
enabled = %t
ttl = %q
lookup-size = %d

[snapshot]
name = %q
autosave = %t
`,
		d.Endpoint,
		d.Timeout.String(),
		d.CacheEnabled,
		d.CacheTTL.String(),
		d.LookupCacheSize,
		d.SnapshotName,
		d.Autosave,
	)
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func intOption(cmd *cobra.Command, name string, value int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return state.Int(value)
}

func applyDurationFlag(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
