package validation

import (
	"fmt"
	"os"
)

// FileExistsError indicates a file or directory is missing, with a descriptive message.
type FileExistsError struct {
	Path    string
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// CheckFileExists checks that a regular file exists at path.
//
// Returns nil if the file exists, or a *FileExistsError describing the failure.
func CheckFileExists(path string) error {
	info, err := stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("path is a directory, not a file: %s", path),
		}
	}
	return nil
}

// CheckDirExists checks that a directory exists at path.
//
// Returns nil if the directory exists, or a *FileExistsError describing the failure.
func CheckDirExists(path string) error {
	info, err := stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("path is a file, not a directory: %s", path),
		}
	}
	return nil
}

func stat(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, &FileExistsError{Path: path, Message: "path cannot be empty"}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileExistsError{
				Path:    path,
				Message: fmt.Sprintf("not found: %s", path),
			}
		}
		return nil, &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("error checking %s: %v", path, err),
		}
	}
	return info, nil
}
