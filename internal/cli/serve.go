package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"guardflow/internal/server"
)

func newServeCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflows over HTTP",
		Long: `Serve every workflow over HTTP until interrupted. Each browser gets its own
session cookie, so state and activity are kept per browser.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(app.Backend,
				server.WithLogger(app.Logger),
				server.WithWorkflowOptions(app.WorkflowOptions),
				server.WithSecureCookie(app.Config.Server.SecureCookie),
			)
			app.Printer.Listening(addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
