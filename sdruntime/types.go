package sdruntime

import (
	"fmt"
	"image"
)

// GenerateParams is one native generation call.
type GenerateParams struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	CFGScale       float64
	Eta            float64
	Seed           int64

	Sampler      Sampler
	BetaStart    float64
	BetaEnd      float64
	BetaSchedule string

	// img2img / inpaint; both already scaled to Width x Height
	InitImage *image.NRGBA
	Mask      *image.Gray
	Strength  float64
}

// Parameter validation constants
const (
	MinImageSize      = 128
	MaxImageSize      = 2048
	ImageSizeMultiple = 8

	MinSteps = 1
	MaxSteps = 150

	MinCFGScale = 0.0
	MaxCFGScale = 30.0

	MaxPromptLength = 1000

	// maxParsedPromptLength bounds a prompt after ApplyPromptParser.
	// Escaping at most doubles the typed text.
	maxParsedPromptLength = 2 * MaxPromptLength
)

// ValidateParams validates generation parameters.
// This is a pure function with no side effects.
func ValidateParams(p GenerateParams) error {
	if err := checkPrompt(p.Prompt, maxParsedPromptLength); err != nil {
		return err
	}

	if err := validateDimension("width", p.Width); err != nil {
		return err
	}
	if err := validateDimension("height", p.Height); err != nil {
		return err
	}

	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d must be between %d and %d",
			ErrInvalidParams, p.Steps, MinSteps, MaxSteps)
	}

	if p.CFGScale < MinCFGScale || p.CFGScale > MaxCFGScale {
		return fmt.Errorf("%w: guidance scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.CFGScale, MinCFGScale, MaxCFGScale)
	}

	if p.Eta < 0 {
		return fmt.Errorf("%w: eta %.2f must not be negative", ErrInvalidParams, p.Eta)
	}

	if p.Seed < 0 {
		return fmt.Errorf("%w: seed %d must not be negative", ErrInvalidParams, p.Seed)
	}

	if len(p.NegativePrompt) > maxParsedPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(p.NegativePrompt), maxParsedPromptLength)
	}

	if p.Mask != nil && p.InitImage == nil {
		return fmt.Errorf("%w: a mask requires an init image", ErrInvalidParams)
	}

	if p.InitImage != nil {
		if p.Strength < 0 || p.Strength > 1 {
			return fmt.Errorf("%w: strength %.2f must be between 0 and 1",
				ErrInvalidParams, p.Strength)
		}
		if b := p.InitImage.Bounds(); b.Dx() != p.Width || b.Dy() != p.Height {
			return fmt.Errorf("%w: init image is %dx%d, want %dx%d",
				ErrInvalidParams, b.Dx(), b.Dy(), p.Width, p.Height)
		}
	}

	if p.Mask != nil {
		if b := p.Mask.Bounds(); b.Dx() != p.Width || b.Dy() != p.Height {
			return fmt.Errorf("%w: mask is %dx%d, want %dx%d",
				ErrInvalidParams, b.Dx(), b.Dy(), p.Width, p.Height)
		}
	}

	return nil
}

func validateDimension(name string, v int) error {
	if v < MinImageSize || v > MaxImageSize {
		return fmt.Errorf("%w: %s %d must be between %d and %d",
			ErrInvalidParams, name, v, MinImageSize, MaxImageSize)
	}
	if v%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: %s %d must be divisible by %d",
			ErrInvalidParams, name, v, ImageSizeMultiple)
	}
	return nil
}
