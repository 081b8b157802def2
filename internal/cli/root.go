// Package cli implements the blochsweep command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"blochsweep/internal/config"
	"blochsweep/internal/style"
)

// app carries the state shared by every command once the root's pre-run has
// loaded the configuration.
type app struct {
	cfgPath string
	envFile string
	cfg     config.Config
	logger  *slog.Logger
}

// NewRootCmd builds the command tree. Output goes to the writers set on the
// returned command; logs go to its error stream.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "blochsweep",
		Short: "Optical Bloch equation sweeps over detuning",
		Long: `blochsweep solves the Lindblad master equation of a driven atomic system
across a range of detunings, caching result sets and cataloguing runs.

Examples:
  blochsweep levels                      # Zeeman sublevels of the configured atom
  blochsweep sweep --parallel            # steady-state line shape
  blochsweep sweep --cache-key two-level # reuse a cached result set
  blochsweep evolve --pulse gaussian     # driven time evolution per detuning`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before the config")

	root.AddCommand(
		newLevelsCmd(a),
		newCouplingCmd(a),
		newSweepCmd(a),
		newEvolveCmd(a),
		newRunsCmd(a),
		newCacheCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if a.envFile != "" {
		if err := config.LoadDotEnv(a.envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(root *cobra.Command, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		style.PrintError(stderr, "%v", err)
		return 1
	}
	return 0
}

// SilentExitError signals that the command should exit with a specific code
// without printing an error message.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// NewSilentExit creates a SilentExitError with the given exit code.
func NewSilentExit(code int) *SilentExitError {
	return &SilentExitError{Code: code}
}

// IsSilentExit reports the code of a wrapped SilentExitError.
func IsSilentExit(err error) (int, bool) {
	var se *SilentExitError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// exitIncomplete is returned after a sweep that left points unsolved; the
// partial results have already been printed.
const exitIncomplete = 3
