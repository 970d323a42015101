package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ecgen/internal/version"
)

// newRootCmd builds the command tree. Every call returns fresh commands so
// flag state is not shared between runs.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ecgen",
		Short: "Error-code taxonomy generator",
		Long: `ecgen turns a hierarchical error taxonomy (modules, submodules, errors)
into packed 16-bit error codes and renders them as a C header, a JSON or
msgpack descriptor table, or a terminal listing.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := readGlobals(cmd)
			return err
		},
	}

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline details to stderr")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// main executes the root command. If command execution returns an error, it
// is printed to stderr and the process exits with status code 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !isSilent(err) {
			printError(rootCmd.ErrOrStderr(), err)
		}
		stop()
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	color          bool
	quiet          bool
	timings        bool
	verbose        bool
	maxDiagnostics int
}

func readGlobals(cmd *cobra.Command) (globals, error) {
	flags := cmd.Root().PersistentFlags()
	var g globals
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return g, err
	}
	switch colorFlag {
	case "on":
		g.color = true
	case "off":
		g.color = false
	case "auto":
		g.color = isTerminal(os.Stdout)
	default:
		return g, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	color.NoColor = !g.color
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, err
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, err
	}
	if g.verbose, err = flags.GetBool("verbose"); err != nil {
		return g, err
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, err
	}
	return g, nil
}

// logger writes human-readable logs to w. Only warnings and errors are shown
// unless --verbose is set.
func (g globals) logger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if g.verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: !g.color, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// silentError carries an exit status without a message; the command has
// already reported the failure.
type silentError struct{ err error }

func (e silentError) Error() string { return e.err.Error() }
func (e silentError) Unwrap() error { return e.err }

func isSilent(err error) bool {
	var se silentError
	return errors.As(err, &se)
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(w, "%s %v\n", red.Sprint("ecgen:"), err)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
