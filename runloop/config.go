// Package runloop is the interactive half of sdprompt: it reads one run
// per line from standard input, parses the line into a RunConfig and
// hands the resolved request to the engine built at startup.
package runloop

// Per-run defaults.
const (
	DefaultSteps         = 20
	DefaultGuidanceScale = 7.5
	DefaultEta           = 0.0
	DefaultStrength      = 0.5
)

// ExitSentinel ends the loop when typed on its own line, in any case.
const ExitSentinel = "EXIT"

// RunConfig is one parsed input line. It is built fresh for every line and
// dropped after the engine call.
type RunConfig struct {
	Seed           *int64 // nil when --seed is not given
	Steps          int
	GuidanceScale  float64
	Eta            float64
	Prompt         string
	NegativePrompt string
	PromptParser   string
	InitImagePath  string
	Strength       float64
	MaskPath       string
	Output         string // path template, may contain {seed}
}

// DefaultRunConfig returns a RunConfig holding the per-run defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Steps:         DefaultSteps,
		GuidanceScale: DefaultGuidanceScale,
		Eta:           DefaultEta,
		Strength:      DefaultStrength,
	}
}
