package sdruntime

import (
	"os"
	"strconv"

	"sdprompt/core"
)

// SDConfig holds local runtime settings read from the environment.
type SDConfig struct {
	ImageSize      int  // output width and height
	Threads        int  // 0 lets the native library decide
	VerifyChecksum bool // check sha256 from the registry before loading
}

// Default configuration values
const (
	DefaultImageSize = 512
	DefaultThreads   = 0
)

// LoadSDConfig loads SD configuration from environment variables.
func LoadSDConfig() *SDConfig {
	threads := core.ParseIntEnv("SD_THREADS", DefaultThreads)
	if threads < 0 {
		threads = DefaultThreads
	}

	return &SDConfig{
		ImageSize:      parseImageSize(os.Getenv("SD_IMAGE_SIZE")),
		Threads:        threads,
		VerifyChecksum: core.ParseBoolEnv("SD_VERIFY_CHECKSUM", false),
	}
}

// parseImageSize accepts any size in range that is divisible by 8.
// Returns the default if invalid or empty.
func parseImageSize(s string) int {
	if s == "" {
		return DefaultImageSize
	}

	size, err := strconv.Atoi(s)
	if err != nil {
		return DefaultImageSize
	}

	if size < MinImageSize || size > MaxImageSize || size%ImageSizeMultiple != 0 {
		return DefaultImageSize
	}
	return size
}
