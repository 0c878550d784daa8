package core

import (
	"errors"
	"fmt"
)

// ConfigError is a startup-time error. It is always fatal: the process
// reports it and exits before the run loop starts.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
	Err     error  // Underlying cause, if any
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Error codes for configuration errors
const (
	ErrCodeUnknownScheduler       = "UNKNOWN_SCHEDULER"
	ErrCodeInvalidSchedulerConfig = "INVALID_SCHEDULER_CONFIG"
	ErrCodeEngineInitFailed       = "ENGINE_INIT_FAILED"
	ErrCodeInvalidBackend         = "INVALID_BACKEND"
	ErrCodeMissingAuth            = "MISSING_AUTH"
	ErrCodeMissingConfig          = "MISSING_CONFIG"
	ErrCodeInvalidEndpoint        = "INVALID_ENDPOINT"
	ErrCodeEndpointUnreachable    = "ENDPOINT_UNREACHABLE"
)

// ErrUnknownScheduler returns an error for a --scheduler value outside the supported set.
func ErrUnknownScheduler(name string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownScheduler,
		Message: fmt.Sprintf("Scheduler must be one of: [LMS, DDIM], got %q", name),
		Action:  "Pass --scheduler LMS or --scheduler DDIM",
		Err:     cause,
	}
}

// ErrInvalidSchedulerConfig returns an error for unusable beta parameters.
func ErrInvalidSchedulerConfig(cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidSchedulerConfig,
		Message: fmt.Sprintf("Invalid scheduler configuration: %v", cause),
		Action:  "Check --beta-start, --beta-end and --beta-schedule",
		Err:     cause,
	}
}

// ErrEngineInitFailed returns an error when the generation engine cannot be constructed.
func ErrEngineInitFailed(model string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEngineInitFailed,
		Message: fmt.Sprintf("Failed to initialize engine for model %q: %v", model, cause),
		Action:  "Verify --model, --model-revision and --models-dir point to an available model",
		Err:     cause,
	}
}

// ErrInvalidBackend returns an error for an unsupported --backend value.
func ErrInvalidBackend(backend string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidBackend,
		Message: fmt.Sprintf("Unsupported backend %q", backend),
		Action:  fmt.Sprintf("Set --backend (or SDPROMPT_BACKEND) to one of: %s, %s, %s", BackendLocal, BackendOpenAI, BackendAzure),
	}
}

// ErrMissingAuth returns an error for missing authentication credentials
func ErrMissingAuth(service string) *ConfigError {
	var action string
	switch service {
	case BackendOpenAI:
		action = "Set OPENAI_API_KEY in your .env file"
	case BackendAzure:
		action = "Set AZURE_OPENAI_KEY in your .env file"
	default:
		action = fmt.Sprintf("Set the required API key for %s in your .env file", service)
	}
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing authentication credentials for %s", service),
		Action:  action,
	}
}

// ErrMissingConfig returns an error for missing required configuration
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// IsConfigError checks if an error is (or wraps) a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}

// ErrInvalidEndpoint returns an error for a malformed image API endpoint.
func ErrInvalidEndpoint(endpoint, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidEndpoint,
		Message: fmt.Sprintf("Invalid image API endpoint %q: %s", endpoint, reason),
		Action:  "Check IMAGE_LLM_URL or AZURE_OPENAI_ENDPOINT (must be an http or https URL)",
	}
}

// ErrEndpointUnreachable returns an error when the image API cannot be reached.
func ErrEndpointUnreachable(endpoint, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEndpointUnreachable,
		Message: fmt.Sprintf("Cannot reach image API at %s: %s", endpoint, reason),
		Action:  "Check your network connection, proxy settings and ALLOW_SELF_SIGNED_CERTS",
	}
}
