package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GenerationMetrics describes one run of the engine. It implements
// zapcore.ObjectMarshaler so a whole run lands in a single log entry.
//
// Example:
//
//	logger.Info("run complete", logging.GenerationFields(logging.GenerationMetrics{
//		RunID:      id,
//		Mode:       "text2img",
//		Seed:       42,
//		Steps:      32,
//		OutputPath: "img_42.png",
//		Duration:   elapsed,
//		Success:    true,
//	}))
type GenerationMetrics struct {
	RunID      string
	Mode       string
	Backend    string
	Seed       int64
	Steps      int
	Guidance   float64
	Strength   float64
	OutputPath string
	Duration   time.Duration
	Success    bool
	Stage      string // failing stage, empty on success
	Error      string
}

// MarshalLogObject encodes the metrics with snake_case keys. Duration is
// written in milliseconds; stage and error are omitted on success.
func (m GenerationMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("run_id", m.RunID)
	enc.AddString("mode", m.Mode)
	if m.Backend != "" {
		enc.AddString("backend", m.Backend)
	}
	enc.AddInt64("seed", m.Seed)
	enc.AddInt("steps", m.Steps)
	enc.AddFloat64("guidance_scale", m.Guidance)
	enc.AddFloat64("strength", m.Strength)
	enc.AddString("output", m.OutputPath)
	enc.AddInt64("duration_ms", m.Duration.Milliseconds())
	enc.AddBool("success", m.Success)
	if !m.Success {
		enc.AddString("stage", m.Stage)
		enc.AddString("error", RedactSensitiveData(m.Error))
	}
	return nil
}

// GenerationFields wraps metrics in a "generation" object field.
func GenerationFields(m GenerationMetrics) zap.Field {
	return zap.Object("generation", m)
}
