// Package scheduler describes the noise scheduler configurations handed to a
// generation engine.
//
// The package holds configuration only. The update rules of each scheduler
// live in the engine backends; this package decides which variant is used
// and with which beta parameters.
package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Kind identifies a scheduler variant.
type Kind string

const (
	// LMS is the linear multistep discrete scheduler (text2img default).
	LMS Kind = "LMS"
	// DDIM is the denoising diffusion implicit model scheduler.
	DDIM Kind = "DDIM"
	// PNDM is the pseudo numerical scheduler used for img2img and inpainting.
	PNDM Kind = "PNDM"
)

// BetaSchedule names the beta progression used by a scheduler.
type BetaSchedule string

const (
	BetaLinear       BetaSchedule = "linear"
	BetaScaledLinear BetaSchedule = "scaled_linear"
	BetaSquaredCos   BetaSchedule = "squaredcos_cap_v2"
)

// Defaults for the beta parameters.
const (
	DefaultBetaStart    = 0.00085
	DefaultBetaEnd      = 0.012
	DefaultBetaSchedule = BetaScaledLinear
)

var (
	ErrUnknownScheduler    = errors.New("scheduler: unknown scheduler")
	ErrUnknownBetaSchedule = errors.New("scheduler: unknown beta schedule")
	ErrInvalidBetaRange    = errors.New("scheduler: invalid beta range")
)

var text2ImgKinds = []Kind{LMS, DDIM}

var betaSchedules = []BetaSchedule{BetaLinear, BetaScaledLinear, BetaSquaredCos}

// Beta groups the hyperparameters shared by every scheduler built at startup.
type Beta struct {
	Start    float64
	End      float64
	Schedule BetaSchedule
}

// DefaultBeta returns the beta parameters the engine was trained with.
func DefaultBeta() Beta {
	return Beta{
		Start:    DefaultBetaStart,
		End:      DefaultBetaEnd,
		Schedule: DefaultBetaSchedule,
	}
}

// Config is an immutable scheduler description.
type Config struct {
	Kind         Kind
	BetaStart    float64
	BetaEnd      float64
	BetaSchedule BetaSchedule

	// SkipPRKSteps drops the Runge-Kutta warmup steps of PNDM.
	SkipPRKSteps bool
}

// Text2ImgKinds returns the scheduler kinds accepted for text-to-image runs.
func Text2ImgKinds() []Kind {
	return append([]Kind(nil), text2ImgKinds...)
}

// ParseText2ImgKind matches name case-insensitively against LMS and DDIM.
func ParseText2ImgKind(name string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(name)))
	if !lo.Contains(text2ImgKinds, kind) {
		return "", fmt.Errorf("%w: %q (must be one of %s)", ErrUnknownScheduler, name, joinKinds(text2ImgKinds))
	}
	return kind, nil
}

// ParseBetaSchedule validates a beta schedule name.
func ParseBetaSchedule(name string) (BetaSchedule, error) {
	schedule := normalizeSchedule(BetaSchedule(name))
	if !lo.Contains(betaSchedules, schedule) {
		names := lo.Map(betaSchedules, func(s BetaSchedule, _ int) string { return string(s) })
		return "", fmt.Errorf("%w: %q (must be one of %s)", ErrUnknownBetaSchedule, name, strings.Join(names, ", "))
	}
	return schedule, nil
}

// NewText2Img builds the text-to-image scheduler selected by name.
// The name is checked before the beta parameters so an unknown scheduler is
// always reported as such.
func NewText2Img(name string, beta Beta) (Config, error) {
	kind, err := ParseText2ImgKind(name)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Kind:         kind,
		BetaStart:    beta.Start,
		BetaEnd:      beta.End,
		BetaSchedule: normalizeSchedule(beta.Schedule),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewImg2Img builds the fixed PNDM scheduler used for img2img and inpainting.
func NewImg2Img(beta Beta) (Config, error) {
	cfg := Config{
		Kind:         PNDM,
		BetaStart:    beta.Start,
		BetaEnd:      beta.End,
		BetaSchedule: normalizeSchedule(beta.Schedule),
		SkipPRKSteps: true,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the beta parameters.
func (c Config) Validate() error {
	if _, err := ParseBetaSchedule(string(c.BetaSchedule)); err != nil {
		return err
	}
	if c.BetaStart <= 0 || c.BetaEnd >= 1 || c.BetaStart >= c.BetaEnd {
		return fmt.Errorf("%w: need 0 < beta_start (%g) < beta_end (%g) < 1",
			ErrInvalidBetaRange, c.BetaStart, c.BetaEnd)
	}
	return nil
}

// String renders the config for logs.
func (c Config) String() string {
	s := fmt.Sprintf("%s(beta_start=%g, beta_end=%g, beta_schedule=%s", c.Kind, c.BetaStart, c.BetaEnd, c.BetaSchedule)
	if c.SkipPRKSteps {
		s += ", skip_prk_steps=true"
	}
	return s + ")"
}

func normalizeSchedule(s BetaSchedule) BetaSchedule {
	return BetaSchedule(strings.ToLower(strings.TrimSpace(string(s))))
}

func joinKinds(kinds []Kind) string {
	names := lo.Map(kinds, func(k Kind, _ int) string { return string(k) })
	return "[" + strings.Join(names, ", ") + "]"
}
