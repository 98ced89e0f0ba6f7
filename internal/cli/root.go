// Package cli implements the msocr command-line tool.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tsawler/msocr/export"
	"github.com/tsawler/msocr/internal/logger"
)

// version is overridden at build time with -ldflags "-X ...cli.version=..."
var version = export.Version

// logFlags are shared by every command
type logFlags struct {
	level  string
	file   string
	format string
}

// newLogger builds the command's logger. The close function must be
// called when the command finishes.
func (f *logFlags) newLogger(cmd *cobra.Command) (*slog.Logger, func() error, error) {
	return logger.New(logger.Options{
		Level:  f.level,
		Format: f.format,
		File:   f.file,
		Output: cmd.ErrOrStderr(),
	})
}

// NewRootCmd builds the msocr command tree.
func NewRootCmd() *cobra.Command {
	logs := &logFlags{}
	root := &cobra.Command{
		Use:   "msocr",
		Short: "Convert PDF documents into structured text",
		Long: `msocr converts digitally authored, scanned or mixed PDF documents into
structured text. Headings, lists, section numbers and tables are kept and
written as Markdown, presentation outlines, DOCX or HTML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logs.level, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logs.file, "log-file", "", "append logs to this file")
	root.PersistentFlags().StringVar(&logs.format, "log-format", "text", "log format (text, json)")

	root.AddCommand(newExtractCmd(logs))
	root.AddCommand(newHistoryCmd(logs))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the command line. An interrupt cancels the running
// conversion.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
