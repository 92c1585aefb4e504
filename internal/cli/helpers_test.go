package cli

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"guardflow/internal/config"
	"guardflow/internal/output"
	"guardflow/internal/storage"
	"guardflow/internal/storage/memory"
)

// testApp builds an App over an in-memory backend with output captured in buf.
func testApp(t *testing.T, backend storage.Backend) (*App, *bytes.Buffer) {
	t.Helper()
	if backend == nil {
		backend = memory.New()
	}
	buf := &bytes.Buffer{}
	return &App{
		Config:  config.DefaultConfig(),
		Backend: backend,
		Printer: output.NewPrinterWithWriter(buf),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, buf
}

// execute runs the root command with args and returns the command error.
func execute(app *App, args ...string) error {
	rootCmd := NewRootCommand(app)
	outBuf := &bytes.Buffer{}
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(outBuf)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
