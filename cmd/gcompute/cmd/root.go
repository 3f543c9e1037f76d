package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/compute"
	"github.com/yaroslav/gcompute/internal/auth"
	"github.com/yaroslav/gcompute/internal/batch"
	"github.com/yaroslav/gcompute/internal/command"
	"github.com/yaroslav/gcompute/internal/config"
	"github.com/yaroslav/gcompute/internal/format"
	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/metrics"
	"github.com/yaroslav/gcompute/internal/move"
	"github.com/yaroslav/gcompute/internal/names"
	"github.com/yaroslav/gcompute/internal/operations"
	"github.com/yaroslav/gcompute/internal/prompt"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app is the state of one gcompute invocation. A single verb runs per
// invocation, so verbs of the same kind share their flag variables.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	global   *config.Global
	inv      *command.Invocation
	logger   *zap.Logger
	exitCode int

	zone     string
	force    bool
	list     command.ListFlags
	move     move.Options
	instance instanceFlags
	disk     diskFlags
	snapshot snapshotFlags
}

// newRootCmd builds the command tree for a.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcompute",
		Short: "gcompute - command line client for the Compute Engine API",
		Long: `gcompute manages Compute Engine resources from the command line.

It provides:
  - get, list, add and delete verbs for instances, disks and snapshots
  - read-only verbs for images, kernels, machine types, zones and projects
  - operation tracking with synchronous waiting
  - moveinstances and resumemove to relocate instances between zones`,
		Version:           versionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetIn(a.stdin)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(instanceCmds(a)...)
	rootCmd.AddCommand(diskCmds(a)...)
	rootCmd.AddCommand(snapshotCmds(a)...)
	rootCmd.AddCommand(catalogCmds(a)...)
	rootCmd.AddCommand(zoneCmds(a)...)
	rootCmd.AddCommand(operationCmds(a)...)
	rootCmd.AddCommand(moveCmds(a)...)
	return rootCmd
}

// Execute runs gcompute with the process arguments and returns the exit
// status. SIGINT and SIGTERM cancel the running verb.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run runs gcompute with args and the given standard streams.
//
// Parameters:
//   - ctx: Context for cancellation; its clock drives polling and waits
//   - args: Command line arguments without the program name
//   - stdin: Source of prompt answers
//   - stdout: Command output
//   - stderr: Errors and log entries
//
// Returns:
//   - int: command.ExitSuccess or command.ExitFailure
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		exitCode: command.ExitSuccess,
	}

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, err.Error())
		a.exitCode = command.ExitFailure
	}
	a.finish()
	return a.exitCode
}

// setup resolves the configuration and builds the runtime shared by every
// verb: logger, metrics, API client, printer, prompter and executor.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	v, err := config.Load(fs)
	if err != nil {
		return err
	}
	if err := config.ApplyToFlags(v, fs); err != nil {
		return err
	}
	g := config.FromViper(v)
	if err := g.Validate(); err != nil {
		return err
	}

	logFormat, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = g.LogLevel
	logCfg.Format = logFormat
	logger, err := logging.NewLogger(logCfg, a.stderr)
	if err != nil {
		return err
	}
	a.global = g
	a.logger = logger

	if err := metrics.Init(); err != nil {
		return err
	}

	project, err := names.DenormalizeProjectName(g.Project, g.ProjectID)
	if err != nil {
		return err
	}
	token, err := auth.ResolveToken(g.AccessToken, g.CredentialsFile)
	if err != nil {
		return err
	}

	client, err := compute.NewClient(compute.ClientConfig{
		APIHost:           g.APIHost,
		ServiceVersion:    g.ServiceVersion,
		Project:           project,
		AccessToken:       token,
		TraceToken:        g.TraceToken,
		UserAgent:         "gcompute/" + Version,
		RequestsPerSecond: g.RequestsPerSecond,
		Logger:            logger.Named("compute"),
	})
	if err != nil {
		return err
	}

	presenter := format.NewPresenter(client.Namer, g.LongValuesDisplayFormat)
	waiter := operations.NewWaiter(operations.WaiterConfig{
		Client:            client,
		Logger:            logger,
		SleepBetweenPolls: g.SleepInterval(),
		MaxWaitTime:       g.MaxWait(),
	})
	executor, err := batch.NewExecutor(batch.ExecutorConfig{
		Concurrency: g.ConcurrentOperations,
		Synchronous: g.SynchronousMode,
		Waiter:      waiter,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	a.inv = &command.Invocation{
		Config:   g,
		Client:   client,
		Namer:    client.Namer,
		Printer:  format.NewPrinter(a.stdout, g.Format, presenter, logger),
		Prompter: prompt.New(a.stdin, a.stdout, logger),
		Executor: executor,
		Waiter:   waiter,
		Logger:   logger,
		Stdout:   a.stdout,
		Stderr:   a.stderr,
	}

	logger.Debug("Configuration resolved",
		zap.String(logging.FieldProject, project),
		zap.String("service_version", g.ServiceVersion),
		zap.String("config_file", g.ConfigFile),
	)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

// finish exports metrics and caches flag values once the verb is done.
func (a *app) finish() {
	if a.global == nil {
		return
	}

	if a.global.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.global.MetricsFile); err != nil {
			a.logger.Warn("Failed to write metrics file", zap.String("path", a.global.MetricsFile), zap.Error(err))
		}
	}

	if a.global.CacheFlagValues && a.exitCode == command.ExitSuccess && a.inv != nil {
		path := a.global.ConfigFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		values := map[string]interface{}{config.FlagProject: a.inv.Project()}
		if a.zone != "" {
			values["zone"] = a.zone
		}
		if err := config.SaveFlagCache(path, values); err != nil {
			a.logger.Warn("Failed to cache flag values", zap.String("path", path), zap.Error(err))
		}
	}

	_ = a.logger.Sync()
}

// runE adapts a verb to a cobra RunE.
func (a *app) runE(spec command.Spec) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a.inv.Zone = a.zone
		a.inv.Force = a.force
		a.exitCode = command.Run(cmd.Context(), a.inv, spec, args)
		return nil
	}
}

// listE is runE for list verbs, which validate --sort_by and --max_results
// against the listed columns first.
func (a *app) listE(spec command.Spec) func(*cobra.Command, []string) error {
	run := a.runE(spec)
	return func(cmd *cobra.Command, args []string) error {
		if err := a.list.Validate(spec.Resource.SummaryFields); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

// newVerb creates a verb command running spec.
func (a *app) newVerb(use, short string, args cobra.PositionalArgs, spec command.Spec) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE:  a.runE(spec),
	}
}

// newListVerb creates a list verb with the list flags and, for zone-level
// collections, --zone.
func (a *app) newListVerb(use, short string, spec command.Spec, zoned bool) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE:  a.listE(spec),
	}
	a.list.AddFlags(c.Flags())
	if zoned {
		a.addZoneFlag(c)
	}
	return c
}

func (a *app) addZoneFlag(c *cobra.Command) {
	c.Flags().StringVar(&a.zone, "zone", "", "The zone of the resource")
}

func (a *app) addForceFlag(c *cobra.Command) {
	c.Flags().BoolVarP(&a.force, "force", "f", false, "Do not ask for confirmation")
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
