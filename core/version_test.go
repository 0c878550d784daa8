package core

import (
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	result := GetVersionInfo()

	for _, want := range []string{Version, BuildTime, GitCommit, "built", "commit"} {
		if !strings.Contains(result, want) {
			t.Errorf("GetVersionInfo() = %q, should contain %q", result, want)
		}
	}
}

func TestBuildLdflags(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		buildTime string
		gitCommit string
		expected  string
	}{
		{
			name:      "all values set",
			version:   "v1.0.0",
			buildTime: "2024-01-15T10:30:00Z",
			gitCommit: "abc1234",
			expected:  "-X sdprompt/core.Version=v1.0.0 -X sdprompt/core.BuildTime=2024-01-15T10:30:00Z -X sdprompt/core.GitCommit=abc1234",
		},
		{
			name:     "only version",
			version:  "v2.0.0",
			expected: "-X sdprompt/core.Version=v2.0.0",
		},
		{
			name:      "version and commit",
			version:   "v1.5.0",
			gitCommit: "def5678",
			expected:  "-X sdprompt/core.Version=v1.5.0 -X sdprompt/core.GitCommit=def5678",
		},
		{
			name:     "no values",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BuildLdflags(tt.version, tt.buildTime, tt.gitCommit)
			if result != tt.expected {
				t.Errorf("BuildLdflags(%q, %q, %q) = %q, want %q",
					tt.version, tt.buildTime, tt.gitCommit, result, tt.expected)
			}
		})
	}
}
