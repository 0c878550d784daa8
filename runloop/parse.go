package runloop

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/pflag"
)

// ErrHelp is returned by ParseRunLine when the line asks for --help.
var ErrHelp = pflag.ErrHelp

// IsExitSentinel reports whether line is the EXIT sentinel.
// This is a pure function with no side effects.
func IsExitSentinel(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExitSentinel)
}

// newFlagSet binds the per-run flags to cfg and seed. The caller decides
// whether the seed was given with fs.Changed("seed").
func newFlagSet(cfg *RunConfig, seed *int64) *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.Int64Var(seed, "seed", 0, "random seed for generating consistent images per prompt")
	fs.IntVar(&cfg.Steps, "num-inference-steps", cfg.Steps, "num inference steps")
	fs.Float64Var(&cfg.GuidanceScale, "guidance-scale", cfg.GuidanceScale, "guidance scale")
	fs.Float64Var(&cfg.Eta, "eta", cfg.Eta, "eta")
	fs.StringVar(&cfg.Prompt, "prompt", "", "prompt (required)")
	fs.StringVar(&cfg.NegativePrompt, "unprompt", "", "negative prompt")
	fs.StringVar(&cfg.PromptParser, "promptparser", "", "prompt parser: plain or lpw")
	fs.StringVar(&cfg.InitImagePath, "init-image", "", "path to initial image")
	fs.Float64Var(&cfg.Strength, "strength", cfg.Strength, "how strong the initial image should be noised [0.0, 1.0]")
	fs.StringVar(&cfg.MaskPath, "mask", "", "mask of the region to inpaint on the initial image")
	fs.StringVar(&cfg.Output, "output", "", "output image name (required), supports {seed} and {step} placeholders")
	return fs
}

// ParseRunLine splits line into words with POSIX shell quoting and parses
// them as per-run flags. There are no comments: "#1" is an ordinary word.
// A line containing --help returns ErrHelp.
func ParseRunLine(line string) (RunConfig, error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return RunConfig{}, fmt.Errorf("invalid quoting: %w", err)
	}

	cfg := DefaultRunConfig()
	var seed int64
	fs := newFlagSet(&cfg, &seed)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return RunConfig{}, ErrHelp
		}
		return RunConfig{}, err
	}

	if fs.NArg() > 0 {
		return RunConfig{}, fmt.Errorf("unexpected argument %q (values need a flag, e.g. --prompt %q)",
			fs.Arg(0), fs.Arg(0))
	}
	if fs.Changed("seed") {
		cfg.Seed = &seed
	}
	if err := cfg.validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

func (c RunConfig) validate() error {
	switch {
	case strings.TrimSpace(c.Prompt) == "":
		return errors.New("--prompt is required")
	case strings.TrimSpace(c.Output) == "":
		return errors.New("--output is required")
	case c.Steps <= 0:
		return fmt.Errorf("--num-inference-steps must be positive, got %d", c.Steps)
	case c.Eta < 0:
		return fmt.Errorf("--eta must be >= 0, got %g", c.Eta)
	case c.Seed != nil && *c.Seed < 0:
		return fmt.Errorf("--seed must be >= 0, got %d", *c.Seed)
	}
	return nil
}

// Usage returns the per-run flag help.
func Usage() string {
	cfg := DefaultRunConfig()
	var seed int64
	var b strings.Builder
	b.WriteString("Enter one run per line, or EXIT to quit. Flags:\n")
	b.WriteString(newFlagSet(&cfg, &seed).FlagUsages())
	return b.String()
}
