package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/grnbind/internal/config"
	"github.com/roach88/grnbind/internal/metrics"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string // database path, overrides config and environment
	Config  string // config file path, empty means ./grnbind.yaml if present
	Metrics bool   // print collected metrics to stderr after the command

	resolved bool
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the grnbind CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "grnbind",
		Short: "grnbind - search engine bindings",
		Long: `Inspect and drive a full-text search database through its binding layer.

Schemas are declared in CUE, records are loaded from YAML or JSON, and
searches, locks and renames go through the same proxies, lock manager and
select engine a host program uses.`,
		SilenceErrors: true, // main prints the error once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Metrics || opts.registry == nil {
				return nil
			}
			return writeMetrics(cmd.ErrOrStderr(), opts.registry)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database file (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./grnbind.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print collected metrics to stderr")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewLockCommand(opts))
	cmd.AddCommand(NewUnlockCommand(opts))
	cmd.AddCommand(NewClearLockCommand(opts))
	cmd.AddCommand(NewLockedCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewIndexesCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	// Select option names use underscores; accept them as flag spellings.
	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	return cmd
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// resolve validates the global flags and loads the configuration. It runs
// once; commands built directly in tests call it on first use.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.resolved {
		return nil
	}
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if o.DB != "" {
		cfg.Database = o.DB
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "configuring logger", err)
	}

	o.registry = prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(o.registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "registering metrics", err)
	}

	o.cfg = cfg
	o.logger = logger
	o.recorder = rec
	o.resolved = true
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // verbose logs go to stderr to keep JSON clean
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
