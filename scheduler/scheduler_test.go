package scheduler

import (
	"errors"
	"strings"
	"testing"
)

func TestParseText2ImgKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{"upper LMS", "LMS", LMS, false},
		{"lower lms", "lms", LMS, false},
		{"mixed DdIm", "DdIm", DDIM, false},
		{"padded", "  ddim ", DDIM, false},
		{"PNDM is img2img only", "PNDM", "", true},
		{"empty", "", "", true},
		{"unknown", "euler", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseText2ImgKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownScheduler) {
					t.Fatalf("ParseText2ImgKind(%q) error = %v, want ErrUnknownScheduler", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseText2ImgKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseText2ImgKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseText2ImgKind_ErrorListsChoices(t *testing.T) {
	_, err := ParseText2ImgKind("foo")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "[LMS, DDIM]") {
		t.Errorf("error %q should list the accepted schedulers", err)
	}
}

func TestParseBetaSchedule(t *testing.T) {
	for _, name := range []string{"linear", "scaled_linear", "SQUAREDCOS_CAP_V2"} {
		if _, err := ParseBetaSchedule(name); err != nil {
			t.Errorf("ParseBetaSchedule(%q) unexpected error: %v", name, err)
		}
	}
	if _, err := ParseBetaSchedule("cosine"); !errors.Is(err, ErrUnknownBetaSchedule) {
		t.Errorf("ParseBetaSchedule(cosine) error = %v, want ErrUnknownBetaSchedule", err)
	}
}

func TestNewText2Img(t *testing.T) {
	cfg, err := NewText2Img("ddim", DefaultBeta())
	if err != nil {
		t.Fatalf("NewText2Img() error = %v", err)
	}
	if cfg.Kind != DDIM {
		t.Errorf("Kind = %q, want DDIM", cfg.Kind)
	}
	if cfg.BetaStart != DefaultBetaStart || cfg.BetaEnd != DefaultBetaEnd {
		t.Errorf("beta = (%g, %g), want defaults", cfg.BetaStart, cfg.BetaEnd)
	}
	if cfg.SkipPRKSteps {
		t.Error("text2img scheduler must not skip PRK steps")
	}
}

func TestNewText2Img_UnknownNameWinsOverBadBeta(t *testing.T) {
	_, err := NewText2Img("nope", Beta{Start: 5, End: 1, Schedule: "bogus"})
	if !errors.Is(err, ErrUnknownScheduler) {
		t.Errorf("error = %v, want ErrUnknownScheduler", err)
	}
}

func TestNewImg2Img(t *testing.T) {
	cfg, err := NewImg2Img(DefaultBeta())
	if err != nil {
		t.Fatalf("NewImg2Img() error = %v", err)
	}
	if cfg.Kind != PNDM {
		t.Errorf("Kind = %q, want PNDM", cfg.Kind)
	}
	if !cfg.SkipPRKSteps {
		t.Error("img2img scheduler must skip PRK steps")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		beta    Beta
		wantErr error
	}{
		{"defaults", DefaultBeta(), nil},
		{"zero start", Beta{Start: 0, End: 0.012, Schedule: BetaLinear}, ErrInvalidBetaRange},
		{"start above end", Beta{Start: 0.02, End: 0.012, Schedule: BetaLinear}, ErrInvalidBetaRange},
		{"end at one", Beta{Start: 0.001, End: 1, Schedule: BetaLinear}, ErrInvalidBetaRange},
		{"bad schedule", Beta{Start: 0.001, End: 0.01, Schedule: "cosine"}, ErrUnknownBetaSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Kind: LMS, BetaStart: tt.beta.Start, BetaEnd: tt.beta.End, BetaSchedule: tt.beta.Schedule}
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg, _ := NewImg2Img(DefaultBeta())
	got := cfg.String()
	if !strings.HasPrefix(got, "PNDM(") || !strings.Contains(got, "skip_prk_steps=true") {
		t.Errorf("String() = %q", got)
	}
}

func TestText2ImgKindsIsACopy(t *testing.T) {
	kinds := Text2ImgKinds()
	kinds[0] = PNDM
	if Text2ImgKinds()[0] != LMS {
		t.Error("Text2ImgKinds() must not expose internal state")
	}
}

func TestNewText2Img_NormalizesSchedule(t *testing.T) {
	cfg, err := NewText2Img("LMS", Beta{Start: 0.001, End: 0.01, Schedule: " Scaled_Linear "})
	if err != nil {
		t.Fatalf("NewText2Img() error = %v", err)
	}
	if cfg.BetaSchedule != BetaScaledLinear {
		t.Errorf("BetaSchedule = %q, want %q", cfg.BetaSchedule, BetaScaledLinear)
	}
}
