package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"sdprompt/core"
	"sdprompt/core/validation"
	"sdprompt/db"
	"sdprompt/engine"
	"sdprompt/imagegen"
	"sdprompt/logging"
	"sdprompt/runloop"
	"sdprompt/sdruntime"
	"sdprompt/shutdown"
)

// app wires the startup sequence: logger, quick checks, engine, history,
// run loop. The constructors are fields so tests can swap the engine.
type app struct {
	cfg *core.Config
	in  io.Reader
	out io.Writer

	newLogger  func(cfg *core.Config) (*logging.Logger, error)
	newFactory func(cfg *core.Config, logger *logging.Logger) engine.Factory

	handleSignals   bool
	shutdownTimeout time.Duration
}

func newApp(cfg *core.Config, in io.Reader, out io.Writer) *app {
	return &app{
		cfg:        cfg,
		in:         in,
		out:        out,
		newLogger:  defaultLogger,
		newFactory: engineFactory,

		handleSignals:   true,
		shutdownTimeout: shutdown.DefaultTimeout,
	}
}

func defaultLogger(cfg *core.Config) (*logging.Logger, error) {
	return logging.NewLogger(cfg.DevMode, cfg.LogFile)
}

// engineFactory returns the engine.Factory for the configured backend.
func engineFactory(cfg *core.Config, logger *logging.Logger) engine.Factory {
	return func(opts engine.Options) (engine.Engine, error) {
		switch cfg.Backend {
		case core.BackendOpenAI:
			eng, err := imagegen.NewOpenAIEngine(cfg, opts, logger)
			if err != nil {
				return nil, err
			}
			return eng, nil
		case core.BackendAzure:
			eng, err := imagegen.NewAzureEngine(cfg, logger)
			if err != nil {
				return nil, err
			}
			return eng, nil
		default:
			eng, err := sdruntime.New(opts, cfg.ModelsDir, sdruntime.LoadSDConfig(), logger)
			if err != nil {
				return nil, err
			}
			return eng, nil
		}
	}
}

// run performs startup and then blocks in the run loop. Startup errors are
// *core.ConfigError; the loop itself only fails when stdin breaks. On
// SIGINT/SIGTERM it returns core.ErrInterrupted after the generation in
// flight has finished and cleanup has run.
func (a *app) run(ctx context.Context) error {
	logger, err := a.newLogger(a.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	mgr := shutdown.NewManager(ctx, logger, shutdown.WithTimeout(a.shutdownTimeout))
	if a.handleSignals {
		mgr.Start()
	}
	defer func() {
		if err := mgr.Shutdown(); err != nil {
			logger.Warn("shutdown completed with errors", zap.Error(err))
		}
	}()
	ctx = mgr.Context()

	logger.Info("starting sdprompt",
		zap.String("version", core.GetVersionInfo()),
		zap.String("backend", a.cfg.Backend),
		zap.String("model", a.cfg.Model),
		zap.String("scheduler", a.cfg.Scheduler),
		zap.Bool("dev_mode", a.cfg.DevMode),
	)

	if err := runStartupValidation(ctx, a.cfg, logger); err != nil {
		return err
	}

	printStatus(a.out, "initializing engine...")
	eng, opts, err := engine.Configure(engine.SettingsFromConfig(a.cfg), a.newFactory(a.cfg, logger))
	if err != nil {
		logger.Error("engine initialization failed", zap.Error(err))
		return err
	}
	mgr.Register("engine", shutdown.PriorityEngine, func(context.Context) error {
		return eng.Close()
	})
	if a.cfg.Backend != core.BackendLocal {
		mgr.Register("temp-files", shutdown.PriorityTemp,
			shutdown.CleanupTempDirs(logger, os.TempDir(), imagegen.TempDirPrefix()))
	}
	printStatus(a.out, "engine initialized (%s, %s)", a.cfg.Backend, opts.Model)

	recorder := openHistory(a.cfg, logger, mgr)

	loop, err := runloop.New(runloop.Options{
		Engine:   eng,
		Input:    a.in,
		Output:   a.out,
		Logger:   logger,
		Recorder: recorder,
		Backend:  a.cfg.Backend,
		Model:    opts.Model,
		Guard:    mgr.Track,
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("run loop stopped", zap.Error(err))
			return err
		}
		logger.Info("Goodbye!")
		return nil
	case <-ctx.Done():
		// The loop goroutine stays blocked on stdin; the process is exiting.
		// A run in flight is tracked and finishes inside mgr.Shutdown.
		logger.Info("Received interrupt signal. Shutting down...")
		return core.ErrInterrupted
	}
}

// runStartupValidation runs the network-free checks. Warnings are logged and
// startup continues; a failed check ends the process.
func runStartupValidation(ctx context.Context, cfg *core.Config, logger *logging.Logger) error {
	result := validation.NewValidationSuite(cfg).
		WithShowProgress(false).
		ValidateQuick(ctx)

	for _, step := range result.GetWarnings() {
		logger.Warn("Startup check warning",
			zap.String("step", step.Name),
			zap.String("message", step.Message),
			zap.Error(step.Error),
		)
	}

	if !result.Success {
		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Startup check failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
			}
		}
		if err := result.GetFirstError(); err != nil {
			return err
		}
		return errors.New(result.Summary())
	}

	logger.Debug("Startup checks passed", zap.String("summary", result.Summary()))
	return nil
}

// openHistory opens the run history store when one is configured and
// registers its close with mgr. A store that cannot be opened disables
// history for this session.
func openHistory(cfg *core.Config, logger *logging.Logger, mgr *shutdown.Manager) runloop.Recorder {
	if !cfg.HistoryEnabled() {
		logger.Debug("run history disabled")
		return nil
	}

	database, err := db.Open(cfg.HistoryDB)
	if err != nil {
		logger.Warn("run history unavailable, continuing without it",
			zap.String("path", cfg.HistoryDB),
			zap.Error(err))
		return nil
	}
	logger.Debug("run history opened", zap.String("path", database.Path()))

	mgr.Register("history", shutdown.PriorityHistory, func(context.Context) error {
		return database.Close()
	})
	return db.NewRepository(database)
}
