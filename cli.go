package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sdprompt/core"
)

// newRootCmd builds the sdprompt command tree. Flag defaults come from the
// environment (after .env is loaded), so flags always win over env.
func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	cfg := core.LoadConfig()

	cmd := &cobra.Command{
		Use:   "sdprompt",
		Short: "Interactive Stable Diffusion prompt loop",
		Long: `sdprompt loads one diffusion engine and then reads one run per line
from standard input until EXIT or end of input.

Each line takes the per-run flags, for example:
  --prompt "a lighthouse at dusk" --seed 42 --output "out/img_{seed}.png"
  --prompt "add a red door" --init-image house.png --mask door.png --output door.png

Type --help on a run line for the full list of per-run flags.`,
		Version:       core.GetVersionInfo(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context())
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	bindConfigFlags(cmd.PersistentFlags(), cfg)
	cmd.AddCommand(newHistoryCmd(cfg), newCheckCmd(cfg))
	return cmd
}

// bindConfigFlags registers the startup flags directly onto cfg.
func bindConfigFlags(fs *pflag.FlagSet, cfg *core.Config) {
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model id, registry entry or path to a model file")
	fs.StringVar(&cfg.ModelRevision, "model-revision", cfg.ModelRevision, "model revision (default revision when empty)")
	fs.StringVar(&cfg.Scheduler, "scheduler", cfg.Scheduler, "text2img scheduler: LMS or DDIM")
	fs.Float64Var(&cfg.BetaStart, "beta-start", cfg.BetaStart, "scheduler beta start")
	fs.Float64Var(&cfg.BetaEnd, "beta-end", cfg.BetaEnd, "scheduler beta end")
	fs.StringVar(&cfg.BetaSchedule, "beta-schedule", cfg.BetaSchedule, "scheduler beta schedule")
	fs.StringVar(&cfg.Tokenizer, "tokenizer", cfg.Tokenizer, "tokenizer id")

	fs.Var(lowerString{&cfg.Backend}, "backend", "engine backend: local, openai or azure")
	fs.StringVar(&cfg.ModelsDir, "models-dir", cfg.ModelsDir, "directory holding models.yaml and model files")
	fs.StringVar(&cfg.HistoryDB, "history-db", cfg.HistoryDB, "run history database (empty disables history)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "JSON log file (empty disables file logging)")
	fs.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "development logging: debug level, colored console")
}

// lowerString is a string flag stored trimmed and lowercased, matching how
// the environment value is read.
type lowerString struct{ p *string }

func (v lowerString) String() string {
	if v.p == nil {
		return ""
	}
	return *v.p
}

func (v lowerString) Set(s string) error {
	*v.p = strings.ToLower(strings.TrimSpace(s))
	return nil
}

func (v lowerString) Type() string { return "string" }

// reportError prints the error that ended the process. Configuration errors
// carry an action line telling the user what to change.
func reportError(w io.Writer, err error) {
	if errors.Is(err, core.ErrInterrupted) {
		color.New(color.FgYellow).Fprintln(w, "interrupted")
		return
	}
	if cfgErr, ok := core.IsConfigError(err); ok {
		color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %s\n", cfgErr.Message)
		if cfgErr.Action != "" {
			color.New(color.FgHiBlack).Fprintf(w, "  └─ %s\n", cfgErr.Action)
		}
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)
}

// printStatus writes a dim progress line to the interactive channel.
func printStatus(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgHiBlack).Fprintln(w, fmt.Sprintf(format, args...))
}
