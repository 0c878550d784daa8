package runloop

import (
	"errors"
	"strings"
	"testing"
)

func TestIsExitSentinel(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"EXIT", true},
		{"exit", true},
		{"Exit", true},
		{"  eXiT \t", true},
		{"EXIT now", false},
		{"--prompt EXIT --output x.png", false},
		{"", false},
		{"QUIT", false},
	}
	for _, tt := range tests {
		if got := IsExitSentinel(tt.line); got != tt.want {
			t.Errorf("IsExitSentinel(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestParseRunLine_Defaults(t *testing.T) {
	cfg, err := ParseRunLine(`--prompt "a red fox" --output out.png`)
	if err != nil {
		t.Fatalf("ParseRunLine() error = %v", err)
	}

	if cfg.Prompt != "a red fox" {
		t.Errorf("Prompt = %q, want %q", cfg.Prompt, "a red fox")
	}
	if cfg.Seed != nil {
		t.Errorf("Seed = %d, want nil", *cfg.Seed)
	}
	if cfg.Steps != DefaultSteps {
		t.Errorf("Steps = %d, want %d", cfg.Steps, DefaultSteps)
	}
	if cfg.GuidanceScale != DefaultGuidanceScale {
		t.Errorf("GuidanceScale = %v, want %v", cfg.GuidanceScale, DefaultGuidanceScale)
	}
	if cfg.Eta != 0 {
		t.Errorf("Eta = %v, want 0", cfg.Eta)
	}
	if cfg.Strength != 0.5 {
		t.Errorf("Strength = %v, want 0.5", cfg.Strength)
	}
	if cfg.NegativePrompt != "" || cfg.PromptParser != "" || cfg.InitImagePath != "" || cfg.MaskPath != "" {
		t.Errorf("optional fields should be empty, got %+v", cfg)
	}
}

func TestParseRunLine_AllFlags(t *testing.T) {
	line := `--seed 42 --num-inference-steps 32 --guidance-scale 9 --eta 0.3 ` +
		`--prompt 'castle, (dramatic:1.2)' --unprompt "blurry" --promptparser lpw ` +
		`--init-image in.png --strength 0.8 --mask mask.png --output "out/img_{seed}_{step}.png"`

	cfg, err := ParseRunLine(line)
	if err != nil {
		t.Fatalf("ParseRunLine() error = %v", err)
	}

	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("Seed = %v, want 42", cfg.Seed)
	}
	if cfg.Steps != 32 || cfg.GuidanceScale != 9 || cfg.Eta != 0.3 || cfg.Strength != 0.8 {
		t.Errorf("numeric flags = %+v", cfg)
	}
	if cfg.Prompt != "castle, (dramatic:1.2)" || cfg.NegativePrompt != "blurry" || cfg.PromptParser != "lpw" {
		t.Errorf("prompt flags = %+v", cfg)
	}
	if cfg.InitImagePath != "in.png" || cfg.MaskPath != "mask.png" {
		t.Errorf("image flags = %+v", cfg)
	}
	if cfg.Output != "out/img_{seed}_{step}.png" {
		t.Errorf("Output = %q", cfg.Output)
	}
}

func TestParseRunLine_HashIsNotAComment(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantPrompt string
		wantOutput string
		wantSeed   int64
	}{
		{"hashtag prompt", "--prompt #hashtag --output out.png --seed 7", "#hashtag", "out.png", 7},
		{"hash inside output name", "--prompt cat --seed 3 --output shot#{seed}.png", "cat", "shot#{seed}.png", 3},
		{"quoted hash", `--prompt "cat #2" --output o.png --seed 1`, "cat #2", "o.png", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRunLine(tt.line)
			if err != nil {
				t.Fatalf("ParseRunLine() error = %v", err)
			}
			if cfg.Prompt != tt.wantPrompt || cfg.Output != tt.wantOutput {
				t.Errorf("prompt = %q, output = %q", cfg.Prompt, cfg.Output)
			}
			if cfg.Seed == nil || *cfg.Seed != tt.wantSeed {
				t.Errorf("Seed = %v, want %d", cfg.Seed, tt.wantSeed)
			}
		})
	}
}

func TestParseRunLine_HashWordIsPositional(t *testing.T) {
	// Everything after "#1" is still parsed, so the stray word is reported.
	_, err := ParseRunLine("--prompt cat --output o_{seed}.png #1 --seed 42")
	if err == nil || !strings.Contains(err.Error(), `unexpected argument "#1"`) {
		t.Fatalf("ParseRunLine() error = %v, want unexpected argument \"#1\"", err)
	}
}

func TestParseRunLine_SeedZeroIsGiven(t *testing.T) {
	cfg, err := ParseRunLine("--seed 0 --prompt p --output o.png")
	if err != nil {
		t.Fatalf("ParseRunLine() error = %v", err)
	}
	if cfg.Seed == nil || *cfg.Seed != 0 {
		t.Errorf("Seed = %v, want explicit 0", cfg.Seed)
	}
}

func TestParseRunLine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMsg string
	}{
		{"bad int", "--num-inference-steps abc --prompt p --output o.png", "num-inference-steps"},
		{"bad float", "--guidance-scale high --prompt p --output o.png", "guidance-scale"},
		{"unknown flag", "--prompt p --output o.png --width 512", "width"},
		{"missing prompt", "--output o.png", "--prompt"},
		{"missing output", "--prompt p", "--output"},
		{"stray word", "a cat --prompt p --output o.png", "unexpected argument"},
		{"unterminated quote", `--prompt "a cat --output o.png`, "quoting"},
		{"zero steps", "--num-inference-steps 0 --prompt p --output o.png", "positive"},
		{"negative eta", "--eta -1 --prompt p --output o.png", "--eta"},
		{"negative seed", "--seed -5 --prompt p --output o.png", "--seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRunLine(tt.line)
			if err == nil {
				t.Fatal("ParseRunLine() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseRunLine_Help(t *testing.T) {
	for _, line := range []string{"--help", "-h", "--prompt p --help"} {
		if _, err := ParseRunLine(line); !errors.Is(err, ErrHelp) {
			t.Errorf("ParseRunLine(%q) error = %v, want ErrHelp", line, err)
		}
	}
}

func TestUsage(t *testing.T) {
	usage := Usage()
	for _, flag := range []string{
		"--seed", "--num-inference-steps", "--guidance-scale", "--eta", "--prompt",
		"--unprompt", "--promptparser", "--init-image", "--strength", "--mask", "--output",
	} {
		if !strings.Contains(usage, flag) {
			t.Errorf("Usage() missing %s", flag)
		}
	}
	if !strings.Contains(usage, ExitSentinel) {
		t.Error("Usage() should mention the exit sentinel")
	}
}
