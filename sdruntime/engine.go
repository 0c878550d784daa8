package sdruntime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sdprompt/engine"
	"sdprompt/imageio"
	"sdprompt/logging"
	"sdprompt/scheduler"
)

// Engine is the local engine.Engine. It owns one native context and is
// not safe for concurrent use.
type Engine struct {
	sdCtx  *SDContext
	opts   engine.Options
	cfg    *SDConfig
	model  ResolvedModel
	logger *logging.Logger

	text2img Sampler
	img2img  Sampler

	// generate is GenerateImage outside of tests.
	generate func(*SDContext, GenerateParams) (*GenerateResult, error)
	closed   bool
}

var _ engine.Engine = (*Engine)(nil)

// New resolves opts.Model under modelsDir, verifies it when configured and
// loads it. Every error here is fatal to startup.
func New(opts engine.Options, modelsDir string, cfg *SDConfig, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = LoadSDConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("sdruntime")

	text2img, err := SamplerFor(opts.Text2Img)
	if err != nil {
		return nil, err
	}
	img2img, err := SamplerFor(opts.Img2Img)
	if err != nil {
		return nil, err
	}

	model, err := ResolveModel(modelsDir, opts.Model, opts.ModelRevision)
	if err != nil {
		return nil, err
	}
	logger.Info("model resolved",
		zap.String("model", opts.Model),
		zap.String("revision", opts.ModelRevision),
		zap.String("path", model.Path),
		zap.String("source", model.Source))

	if cfg.VerifyChecksum {
		if model.SHA256 == "" {
			logger.Warn("checksum verification requested but no sha256 is registered", zap.String("path", model.Path))
		} else if err := VerifyModelChecksum(model.Path, model.SHA256); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	sdCtx, err := LoadModel(model.Path, LoadOptions{Threads: cfg.Threads})
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded",
		zap.Duration("load_time", time.Since(start)),
		zap.String("backend", GetBackendInfo()),
		zap.String("tokenizer", opts.Tokenizer),
		zap.Stringer("text2img_scheduler", opts.Text2Img),
		zap.Stringer("img2img_scheduler", opts.Img2Img))

	return &Engine{
		sdCtx:    sdCtx,
		opts:     opts,
		cfg:      cfg,
		model:    model,
		logger:   logger,
		text2img: text2img,
		img2img:  img2img,
		generate: GenerateImage,
	}, nil
}

// Model returns where the model was loaded from.
func (e *Engine) Model() ResolvedModel {
	return e.model
}

// Generate runs one request and writes the PNG to req.OutputPath.
func (e *Engine) Generate(ctx context.Context, req engine.Request) error {
	if e.closed {
		return ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params, err := e.buildParams(req)
	if err != nil {
		return err
	}

	e.logger.Debug("generating",
		zap.String("mode", string(req.Mode())),
		zap.String("sampler", string(params.Sampler)),
		zap.Int("size", e.cfg.ImageSize),
		zap.Int64("seed", params.Seed))

	result, err := e.generate(e.sdCtx, params)
	if err != nil {
		return err
	}

	if err := ValidateImageData(result.ImageData); err != nil {
		return fmt.Errorf("generated image validation failed: %w", err)
	}

	return imageio.WriteFile(req.OutputPath, result.ImageData)
}

// buildParams checks the prompts as typed, applies the prompt parser, picks
// the scheduler for the mode and scales the images to the output size.
func (e *Engine) buildParams(req engine.Request) (GenerateParams, error) {
	if err := ValidatePrompt(req.Prompt); err != nil {
		return GenerateParams{}, err
	}
	if err := ValidateNegativePrompt(req.NegativePrompt); err != nil {
		return GenerateParams{}, err
	}

	prompt, err := ApplyPromptParser(req.PromptParser, req.Prompt)
	if err != nil {
		return GenerateParams{}, err
	}
	negative, err := ApplyPromptParser(req.PromptParser, req.NegativePrompt)
	if err != nil {
		return GenerateParams{}, err
	}

	size := e.cfg.ImageSize
	p := GenerateParams{
		Prompt:         prompt,
		NegativePrompt: negative,
		Width:          size,
		Height:         size,
		Steps:          req.Steps,
		CFGScale:       req.GuidanceScale,
		Eta:            req.Eta,
		Seed:           req.Seed,
		Strength:       req.Strength,
	}

	sched := e.opts.Text2Img
	p.Sampler = e.text2img
	if req.InitImage != nil {
		sched = e.opts.Img2Img
		p.Sampler = e.img2img
		if p.InitImage, err = imageio.Resize(req.InitImage, size, size); err != nil {
			return GenerateParams{}, err
		}
	}
	if req.Mask != nil {
		if p.Mask, err = imageio.ResizeGray(req.Mask, size, size); err != nil {
			return GenerateParams{}, err
		}
	}
	applyBeta(&p, sched)

	if err := ValidateParams(p); err != nil {
		return GenerateParams{}, err
	}
	return p, nil
}

func applyBeta(p *GenerateParams, cfg scheduler.Config) {
	p.BetaStart = cfg.BetaStart
	p.BetaEnd = cfg.BetaEnd
	p.BetaSchedule = string(cfg.BetaSchedule)
}

// Close frees the native context. It is safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	FreeContext(e.sdCtx)
	e.logger.Debug("model unloaded", zap.String("path", e.model.Path))
	return nil
}
