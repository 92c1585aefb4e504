package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"guardflow/internal/demo"
	"guardflow/internal/workflow"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Printer.Workflows(demo.List())
			return nil
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <workflow> [step]",
		Short: "Render a workflow step",
		Long: `Render a workflow step with its progress, snapshot, actions and recent activity.
Without a step, or with an unknown one, the first step is shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			requested := ""
			if len(args) == 2 {
				requested = args[1]
			}
			app.Printer.Page(sess.Page(cmd.Context(), requested))
			return nil
		},
	}
}

func newPerformCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "perform <workflow> <action>",
		Short: "Run one workflow action",
		Long: `Run one action: update the workflow state, record the activity entry and
show the step the action leads to.

Example:
  guardflow perform driver verify-identity`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			out, err := sess.Perform(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			app.Printer.Outcome(out)
			if out.Navigate {
				app.Printer.Page(sess.Page(cmd.Context(), out.Next.ID))
			}
			return nil
		},
	}
}

func newNextCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next <workflow> <step>",
		Short: "Advance past a step when its prerequisites are met",
		Long: `Advance to the step after <step>. Exits with status 1 when the step's
prerequisites are not met. From the last step, returns to the first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			target, err := sess.Next(cmd.Context(), args[1])
			if errors.Is(err, workflow.ErrGuardBlocked) {
				app.Printer.Blocked(target)
				cmd.SilenceUsage = true
				return NewExitError(1)
			}
			if err != nil {
				return err
			}
			app.Printer.Page(sess.Page(cmd.Context(), target.ID))
			return nil
		},
	}
}

func newJumpCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "jump <workflow> <step>",
		Short: "Open any step without checking prerequisites",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			target := sess.Jump(args[1])
			app.Printer.Page(sess.Page(cmd.Context(), target.ID))
			return nil
		},
	}
}

func newAuditCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <workflow>",
		Short: "Print the full activity log, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			app.Printer.Audit(sess.Audit(cmd.Context()))
			return nil
		},
	}
}

func newResetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <workflow>",
		Short: "Clear a workflow's state and activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Open(args[0])
			if err != nil {
				return err
			}
			if err := sess.Reset(cmd.Context()); err != nil {
				return err
			}
			app.Printer.Reset(sess.Name())
			return nil
		},
	}
}
