package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigError
		contains []string
	}{
		{
			name: "error with action",
			err: &ConfigError{
				Code:    "TEST_CODE",
				Message: "Test message",
				Action:  "Take this action",
			},
			contains: []string{"Test message", "Take this action"},
		},
		{
			name: "error without action",
			err: &ConfigError{
				Code:    "TEST_CODE",
				Message: "Test message only",
			},
			contains: []string{"Test message only"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(errStr, s) {
					t.Errorf("ConfigError.Error() = %q, expected to contain %q", errStr, s)
				}
			}
		})
	}
}

func TestErrUnknownScheduler(t *testing.T) {
	cause := errors.New("boom")
	err := ErrUnknownScheduler("euler", cause)
	if err.Code != ErrCodeUnknownScheduler {
		t.Errorf("Expected code %s, got %s", ErrCodeUnknownScheduler, err.Code)
	}
	if !strings.Contains(err.Message, "[LMS, DDIM]") {
		t.Errorf("Expected message to list schedulers, got %s", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("ConfigError should unwrap to its cause")
	}
}

func TestErrEngineInitFailed(t *testing.T) {
	err := ErrEngineInitFailed("some/model", errors.New("not found"))
	if err.Code != ErrCodeEngineInitFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeEngineInitFailed, err.Code)
	}
	if !strings.Contains(err.Message, "some/model") || !strings.Contains(err.Message, "not found") {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestErrMissingAuth(t *testing.T) {
	tests := []struct {
		service   string
		expectEnv string
	}{
		{BackendOpenAI, "OPENAI_API_KEY"},
		{BackendAzure, "AZURE_OPENAI_KEY"},
		{"other", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			err := ErrMissingAuth(tt.service)
			if err.Code != ErrCodeMissingAuth {
				t.Errorf("Expected code %s, got %s", ErrCodeMissingAuth, err.Code)
			}
			if !strings.Contains(err.Action, tt.expectEnv) {
				t.Errorf("Expected action to mention %s, got %s", tt.expectEnv, err.Action)
			}
		})
	}
}

func TestIsConfigError(t *testing.T) {
	configErr := ErrMissingConfig("TEST_VAR")
	wrapped := fmt.Errorf("startup: %w", configErr)

	got, ok := IsConfigError(wrapped)
	if !ok {
		t.Fatal("IsConfigError should find a wrapped ConfigError")
	}
	if got != configErr {
		t.Error("IsConfigError returned a different error")
	}

	if _, ok := IsConfigError(errors.New("plain")); ok {
		t.Error("IsConfigError should return false for a plain error")
	}
	if _, ok := IsConfigError(nil); ok {
		t.Error("IsConfigError should return false for nil")
	}
}

func TestGetErrorCode(t *testing.T) {
	if code := GetErrorCode(ErrInvalidBackend("gpu")); code != ErrCodeInvalidBackend {
		t.Errorf("GetErrorCode() = %q, want %q", code, ErrCodeInvalidBackend)
	}
	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Errorf("GetErrorCode() = %q, want empty", code)
	}
}
