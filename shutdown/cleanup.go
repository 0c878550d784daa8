package shutdown

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sdprompt/logging"
)

// CleanupTempDirs returns a cleanup step removing directories in dir whose
// names start with prefix. Edit requests cut short by a signal can leave
// them behind. Failures are logged, never returned.
func CleanupTempDirs(logger *logging.Logger, dir, prefix string) Func {
	return func(ctx context.Context) error {
		matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"))
		if err != nil {
			logger.Warn("failed to list temp dirs", zap.String("dir", dir), zap.Error(err))
			return nil
		}

		for i, path := range matches {
			if ctx.Err() != nil {
				logger.Warn("cleanup deadline reached, leaving temp dirs", zap.Int("remaining", len(matches)-i))
				return nil
			}
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := os.RemoveAll(path); err != nil {
				logger.Warn("failed to remove temp dir", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Debug("removed temp dir", zap.String("path", path))
		}
		return nil
	}
}
