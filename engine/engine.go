// Package engine defines the contract between the interactive run loop and
// the image generation backends, and builds the single engine instance a
// process uses.
package engine

import (
	"context"
	"image"

	"sdprompt/scheduler"
)

// Mode is the kind of synthesis a request asks for.
type Mode string

const (
	ModeText2Img Mode = "text2img"
	ModeImg2Img  Mode = "img2img"
	ModeInpaint  Mode = "inpaint"
)

// Request is one fully resolved engine call.
type Request struct {
	OutputPath     string
	Prompt         string
	NegativePrompt string
	PromptParser   string // empty when not given

	InitImage image.Image // nil when absent
	Mask      *image.Gray // nil when absent
	Strength  float64

	Steps         int
	GuidanceScale float64
	Eta           float64
	Seed          int64
}

// Mode derives the synthesis mode from the images present on the request.
func (r Request) Mode() Mode {
	switch {
	case r.InitImage != nil && r.Mask != nil:
		return ModeInpaint
	case r.InitImage != nil:
		return ModeImg2Img
	default:
		return ModeText2Img
	}
}

// Engine generates one image per call and writes it to Request.OutputPath.
// Implementations are not required to be safe for concurrent use.
type Engine interface {
	Generate(ctx context.Context, req Request) error
	Close() error
}

// Options is everything injected into an engine at construction.
type Options struct {
	Model         string
	ModelRevision string // empty means the default revision
	Tokenizer     string

	Text2Img scheduler.Config
	Img2Img  scheduler.Config
}

// Factory constructs an engine. It is called at most once per process.
type Factory func(opts Options) (Engine, error)
