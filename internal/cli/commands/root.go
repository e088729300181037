package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/hyperspace/internal/cli/config"
	"github.com/conduit-lang/hyperspace/internal/cli/ui"
	"github.com/conduit-lang/hyperspace/internal/logging"
	"github.com/conduit-lang/hyperspace/schema"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// app is the state shared by every command of one invocation
type app struct {
	configPath string
	addr       string
	modelName  string
	noColor    bool

	cfg      *config.Config
	logger   *zap.Logger
	registry *schema.Registry
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "hyperspace",
		Short: "Inspect typed Redis keyspaces",
		Long: `Hyperspace - typed Redis keyspace schemas

Hyperspace maps a declared Go object graph onto Redis keys.
This tool shows how a model lays out its keys, builds the key of
any entry, and finds the entry behind a key in a live database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default: nearest hyperspace.yaml)")
	flags.StringVar(&a.addr, "addr", "", "Redis address, overrides redis.addr")
	flags.StringVarP(&a.modelName, "model", "m", "", "model to operate on, overrides model")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newResolveCommand(a))
	rootCmd.AddCommand(newMatchCommand(a))
	rootCmd.AddCommand(newPingCommand(a))
	rootCmd.AddCommand(newScanCommand(a))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger
// and model registry
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), a.noColor))
		return reported(err)
	}
	if a.addr != "" {
		cfg.Redis.Addr = a.addr
	}
	if a.modelName != "" {
		cfg.Model = a.modelName
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.registry = schema.NewRegistry(schema.WithLogger(a.logger))
	return nil
}

// model builds the configured model, reporting unknown names and schema
// errors to stderr
func (a *app) model(cmd *cobra.Command) (*schema.ModelMetadata, error) {
	name := a.cfg.Model
	build, ok := lookupModel(name)
	if !ok {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ModelNotFoundError(name, ui.FindSimilar(name, modelNames(), nil), a.noColor))
		return nil, reported(fmt.Errorf("unknown model %q", name))
	}

	m, err := build(cmd.Context(), a.registry)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.SchemaError(err, a.noColor))
		return nil, reported(err)
	}
	return m, nil
}

// reportedError marks an error whose message was already written for the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the hyperspace version, Git commit, build date, and Go version",
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			noColor, _ := cmd.Flags().GetBool("no-color")
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), noColor)
			kv.AddRow("Hyperspace version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			errorColor := color.New(color.FgRed, color.Bold)
			if noColor, _ := rootCmd.PersistentFlags().GetBool("no-color"); noColor {
				errorColor.DisableColor()
			}
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
