package engine

import (
	"errors"

	"sdprompt/core"
	"sdprompt/scheduler"
)

// Settings are the validated global options the configurator consumes.
type Settings struct {
	Model         string
	ModelRevision string
	Tokenizer     string

	Scheduler    string
	BetaStart    float64
	BetaEnd      float64
	BetaSchedule string
}

// SettingsFromConfig copies the engine-related fields out of the process config.
func SettingsFromConfig(cfg *core.Config) Settings {
	return Settings{
		Model:         cfg.Model,
		ModelRevision: cfg.ModelRevision,
		Tokenizer:     cfg.Tokenizer,
		Scheduler:     cfg.Scheduler,
		BetaStart:     cfg.BetaStart,
		BetaEnd:       cfg.BetaEnd,
		BetaSchedule:  cfg.BetaSchedule,
	}
}

// Configure builds both scheduler configs and then the engine.
//
// Scheduler problems are reported before the factory is touched. Every error
// returned is a *core.ConfigError and is meant to end the process.
func Configure(s Settings, factory Factory) (Engine, Options, error) {
	beta := scheduler.Beta{
		Start:    s.BetaStart,
		End:      s.BetaEnd,
		Schedule: scheduler.BetaSchedule(s.BetaSchedule),
	}

	text2img, err := scheduler.NewText2Img(s.Scheduler, beta)
	if err != nil {
		if errors.Is(err, scheduler.ErrUnknownScheduler) {
			return nil, Options{}, core.ErrUnknownScheduler(s.Scheduler, err)
		}
		return nil, Options{}, core.ErrInvalidSchedulerConfig(err)
	}

	img2img, err := scheduler.NewImg2Img(beta)
	if err != nil {
		return nil, Options{}, core.ErrInvalidSchedulerConfig(err)
	}

	opts := Options{
		Model:         s.Model,
		ModelRevision: s.ModelRevision,
		Tokenizer:     s.Tokenizer,
		Text2Img:      text2img,
		Img2Img:       img2img,
	}

	eng, err := factory(opts)
	if err != nil {
		return nil, opts, core.ErrEngineInitFailed(s.Model, err)
	}
	if eng == nil {
		return nil, opts, core.ErrEngineInitFailed(s.Model, errors.New("factory returned no engine"))
	}
	return eng, opts, nil
}
