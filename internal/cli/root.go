// Package cli implements the guardflow command-line interface using Cobra.
//
// Every workflow command opens one workflow of the catalog for the configured
// session, performs a single operation and renders the result:
//   - list: show the available workflows
//   - show: render a step page (unknown steps redirect to the first step)
//   - perform: run one action and render where it leads
//   - next: advance past a step when its prerequisites are met
//   - jump: open any step without checking prerequisites
//   - audit: print the full activity log
//   - reset: clear a workflow's state and activity
//   - serve: start the HTTP surface
//
// State persists between invocations through the file, redis or sqlite
// backends; the memory backend is useful only within one process.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"guardflow/internal/config"
	"guardflow/internal/content"
	"guardflow/internal/logging"
	"guardflow/internal/output"
)

// Persistent flag names.
const (
	flagSession = "session"
	flagBackend = "backend"
	flagConfig  = "config"
)

// NewRootCommand creates the root command with all subcommands attached.
//
// Dependencies missing from app are resolved from configuration in the root's
// PersistentPreRunE, after flags are parsed.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guardflow",
		Short: "Guarded step workflows for insurance role-play demos",
		Long: `guardflow drives multi-step workflows whose forward navigation is gated
by prerequisites. Every action updates the workflow state and appends an entry
to its activity log in one transaction.

Workflows: driver, underwriter, compliance.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(cmd); err != nil {
				return err
			}
			// Past argument parsing, failures are about state, not usage.
			cmd.SilenceUsage = true
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String(flagSession, "", "session id (overrides config)")
	rootCmd.PersistentFlags().String(flagBackend, "", "storage backend: memory, file, redis or sqlite (overrides config)")
	rootCmd.PersistentFlags().String(flagConfig, "", "config file path")

	rootCmd.AddCommand(
		newListCommand(app),
		newShowCommand(app),
		newPerformCommand(app),
		newNextCommand(app),
		newJumpCommand(app),
		newAuditCommand(app),
		newResetCommand(app),
		newServeCommand(app),
	)

	return rootCmd
}

// init fills in the dependencies the caller did not inject.
func (a *App) init(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if a.Config == nil {
		loader := config.NewLoader()
		var (
			cfg *config.Config
			err error
		)
		if path, _ := flags.GetString(flagConfig); path != "" {
			cfg, err = loader.LoadFromFile(path)
		} else {
			cfg, err = loader.Load()
		}
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	if flags.Changed(flagSession) {
		a.Config.Session, _ = flags.GetString(flagSession)
	}
	if flags.Changed(flagBackend) {
		a.Config.Storage.Backend, _ = flags.GetString(flagBackend)
	}

	if a.Logger == nil {
		a.Logger = logging.Setup(a.Config.Log.Level, a.Config.Log.Format)
	}
	if a.Printer == nil {
		a.Printer = output.NewPrinterWithWriter(cmd.OutOrStdout())
	}

	if a.Content == nil && a.Config.Content.Path != "" {
		overrides, err := content.ReadFromFile(a.Config.Content.Path)
		if err != nil {
			return err
		}
		a.Content = overrides
	}

	if a.Backend == nil {
		backend, closeFn, err := OpenBackend(cmd.Context(), a.Config, a.Logger)
		if err != nil {
			return fmt.Errorf("open %s backend: %w", a.Config.Storage.Backend, err)
		}
		a.Backend = backend
		a.closers = append(a.closers, closeFn)
	}
	return nil
}

// ExecuteResult holds the outcome of running the CLI.
type ExecuteResult struct {
	// ExitCode is the process exit code.
	ExitCode int

	// Err is the error that caused a non-zero exit, if any.
	Err error
}

// Run executes the CLI with args against app and reports the exit code.
//
// Run never calls os.Exit, which keeps it usable from tests.
func Run(app *App, args []string) ExecuteResult {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		_ = app.Close()
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{ExitCode: 0}
}

// Execute runs the CLI with the process arguments and exits with its code.
func Execute() {
	result := Run(&App{}, os.Args[1:])
	os.Exit(result.ExitCode)
}
