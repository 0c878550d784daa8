package core

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user data directory.
const AppName = "sdprompt"

// DataDirEnvVar overrides the per-user data directory.
const DataDirEnvVar = "SDPROMPT_DATA_DIR"

// GetDataDirectory returns where sdprompt keeps per-user state such as the
// run history database. The directory is not created here; the history
// store creates it on open.
//
// Lookup order:
//   - SDPROMPT_DATA_DIR when set
//   - Windows: %APPDATA%\sdprompt, else <home>\AppData\Roaming\sdprompt
//   - Linux: $XDG_DATA_HOME/sdprompt when XDG_DATA_HOME is set
//   - otherwise <home>/.sdprompt, or .sdprompt when home is unknown
func GetDataDirectory() string {
	if dir := os.Getenv(DataDirEnvVar); dir != "" {
		return dir
	}

	home, homeErr := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		if homeErr != nil {
			return AppName
		}
		return filepath.Join(home, "AppData", "Roaming", AppName)
	}

	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(xdg) {
			return filepath.Join(xdg, AppName)
		}
	}
	if homeErr != nil {
		return "." + AppName
	}
	return filepath.Join(home, "."+AppName)
}

// GetDataFilePath joins filename onto GetDataDirectory.
func GetDataFilePath(filename string) string {
	return filepath.Join(GetDataDirectory(), filename)
}
