package sdruntime

import "errors"

// Sentinel errors for SD runtime operations.
var (
	// Model errors, fatal at startup
	ErrModelNotFound   = errors.New("sdruntime: model file not found")
	ErrModelLoadFailed = errors.New("sdruntime: failed to load model")
	ErrModelCorrupted  = errors.New("sdruntime: model file is corrupted or invalid")
	ErrInvalidRegistry = errors.New("sdruntime: invalid model registry")

	// Per-run errors
	ErrGenerationFailed    = errors.New("sdruntime: image generation failed")
	ErrInvalidPrompt       = errors.New("sdruntime: invalid prompt")
	ErrInvalidParams       = errors.New("sdruntime: invalid generation parameters")
	ErrUnknownPromptParser = errors.New("sdruntime: unknown prompt parser")
	ErrUnsupportedSampler  = errors.New("sdruntime: scheduler has no native sampler")

	ErrEngineClosed = errors.New("sdruntime: engine is closed")
)
