package runloop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sdprompt/db"
	"sdprompt/engine"
	"sdprompt/imageio"
	"sdprompt/logging"
)

// maxLineSize bounds one input line; long prompts fit comfortably.
const maxLineSize = 1 << 20

// Recorder stores one row per attempted run. *db.Repository satisfies it.
type Recorder interface {
	InsertRun(ctx context.Context, rec db.RunRecord) (int64, error)
}

// Options configures a Loop.
type Options struct {
	Engine   engine.Engine // required
	Input    io.Reader     // required
	Output   io.Writer     // defaults to io.Discard
	Logger   *logging.Logger
	Recorder Recorder // nil disables run history

	// Backend and Model are copied into history rows and log entries.
	Backend string
	Model   string

	// RandomSeed and NewRunID default to engine.RandomSeed and uuid.NewString.
	RandomSeed func() int64
	NewRunID   func() string

	// Guard wraps each run, from image loading to the history insert. It
	// may refuse to call run, in which case the line is dropped. Defaults
	// to calling run directly.
	Guard func(run func() error) error
}

// Loop is the READING state machine. It is single-threaded: one line is
// fully handled before the next one is read.
type Loop struct {
	engine   engine.Engine
	input    io.Reader
	reporter *Reporter
	logger   *logging.Logger
	recorder Recorder
	backend  string
	model    string

	randomSeed func() int64
	newRunID   func() string
	guard      func(run func() error) error
}

// New validates opts and builds a Loop.
func New(opts Options) (*Loop, error) {
	if opts.Engine == nil {
		return nil, errors.New("runloop: engine is required")
	}
	if opts.Input == nil {
		return nil, errors.New("runloop: input is required")
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.RandomSeed == nil {
		opts.RandomSeed = engine.RandomSeed
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	if opts.Guard == nil {
		opts.Guard = func(run func() error) error { return run() }
	}

	return &Loop{
		engine:     opts.Engine,
		input:      opts.Input,
		reporter:   NewReporter(opts.Output),
		logger:     opts.Logger.Named("runloop"),
		recorder:   opts.Recorder,
		backend:    opts.Backend,
		model:      opts.Model,
		randomSeed: opts.RandomSeed,
		newRunID:   opts.NewRunID,
		guard:      opts.Guard,
	}, nil
}

// Run reads lines until EXIT or end of input and returns nil in both cases.
// Only a failure to read the input itself is returned as an error; every
// per-line failure is reported and the loop keeps reading.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	l.reporter.Ready()
	for scanner.Scan() {
		line := scanner.Text()
		if IsExitSentinel(line) {
			l.logger.Info("exit requested")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		l.handleLine(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("runloop: failed to read input: %w", err)
	}
	l.logger.Info("end of input")
	return nil
}

func (l *Loop) handleLine(ctx context.Context, line string) {
	cfg, err := ParseRunLine(line)
	if err != nil {
		if errors.Is(err, ErrHelp) {
			l.reporter.Usage()
			return
		}
		runErr := newRunError(StageParse, err)
		l.logger.Warn("invalid run line", zap.Error(runErr))
		l.reporter.Failure(runErr)
		return
	}

	start := time.Now()
	var (
		output string
		seed   int64
		ran    bool
	)
	err = l.guard(func() error {
		ran = true
		var err error
		output, seed, err = l.Invoke(ctx, cfg)
		return err
	})
	if !ran {
		l.logger.Info("run not started", zap.Error(err))
		return
	}
	if err != nil {
		l.reporter.Failure(err)
		return
	}
	l.reporter.Success(output, seed, time.Since(start))
}

// Invoke runs one parsed configuration: it fixes the seed, resolves the
// output path, loads the optional images and calls the engine. It returns
// the resolved output path and the seed used. Errors are *RunError.
//
// Cancelling ctx does not stop a run that has started: the engine and the
// history insert get a context without its cancellation.
func (l *Loop) Invoke(ctx context.Context, cfg RunConfig) (string, int64, error) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	seed := l.randomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	output := ResolveOutputPath(cfg.Output, seed)

	req := engine.Request{
		OutputPath:     output,
		Prompt:         cfg.Prompt,
		NegativePrompt: cfg.NegativePrompt,
		PromptParser:   cfg.PromptParser,
		Strength:       cfg.Strength,
		Steps:          cfg.Steps,
		GuidanceScale:  cfg.GuidanceScale,
		Eta:            cfg.Eta,
		Seed:           seed,
	}

	runErr := l.loadImages(cfg, &req)
	if runErr == nil {
		if err := l.engine.Generate(ctx, req); err != nil {
			runErr = newRunError(StageGenerate, err)
		}
	}

	l.finish(ctx, cfg, req, time.Since(start), runErr)
	if runErr != nil {
		return output, seed, runErr
	}
	return output, seed, nil
}

// loadImages decodes the init image as color and the mask as grayscale.
// Absent paths leave the request fields nil.
func (l *Loop) loadImages(cfg RunConfig, req *engine.Request) *RunError {
	if cfg.InitImagePath != "" {
		img, err := imageio.LoadColor(cfg.InitImagePath)
		if err != nil {
			return newRunError(StageLoad, fmt.Errorf("init image: %w", err))
		}
		req.InitImage = img
	}
	if cfg.MaskPath != "" {
		mask, err := imageio.LoadGray(cfg.MaskPath)
		if err != nil {
			return newRunError(StageLoad, fmt.Errorf("mask: %w", err))
		}
		req.Mask = mask
	}
	return nil
}

// finish logs the run and records it in the history. A history failure is
// logged and otherwise ignored.
func (l *Loop) finish(ctx context.Context, cfg RunConfig, req engine.Request, elapsed time.Duration, runErr *RunError) {
	runID := l.newRunID()
	metrics := logging.GenerationMetrics{
		RunID:      runID,
		Mode:       string(req.Mode()),
		Backend:    l.backend,
		Seed:       req.Seed,
		Steps:      req.Steps,
		Guidance:   req.GuidanceScale,
		Strength:   req.Strength,
		OutputPath: req.OutputPath,
		Duration:   elapsed,
		Success:    runErr == nil,
	}
	rec := db.RunRecord{
		RunID:          runID,
		Mode:           metrics.Mode,
		Backend:        l.backend,
		Model:          l.model,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		OutputPath:     req.OutputPath,
		InitImage:      cfg.InitImagePath,
		Mask:           cfg.MaskPath,
		Seed:           req.Seed,
		Steps:          req.Steps,
		GuidanceScale:  req.GuidanceScale,
		Eta:            req.Eta,
		Strength:       req.Strength,
		Status:         db.StatusSuccess,
		DurationMS:     elapsed.Milliseconds(),
	}

	if runErr != nil {
		metrics.Stage = string(runErr.Stage)
		metrics.Error = runErr.Err.Error()
		rec.Status = db.StatusError
		rec.ErrorStage = metrics.Stage
		rec.ErrorMessage = metrics.Error
		l.logger.Error("run failed", logging.GenerationFields(metrics))
	} else {
		l.logger.Info("run complete", logging.GenerationFields(metrics))
	}

	if l.recorder == nil {
		return
	}
	if _, err := l.recorder.InsertRun(ctx, rec); err != nil {
		l.logger.Warn("failed to record run in history",
			zap.String("run_id", runID),
			zap.Error(err))
	}
}
