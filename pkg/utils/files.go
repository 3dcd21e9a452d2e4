package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

func FileExist(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func IsRegular(path string) bool {
	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	return stat.Mode().IsRegular()
}

// EnsureDir check if a directory exist, if not then create it
func EnsureDir(path string, mode os.FileMode) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("not an absolute path: %s", path)
	}

	if fi, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err = os.MkdirAll(path, mode); err != nil {
				return err
			}
		} else {
			return err
		}
	} else if !fi.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}

	return nil
}

// ReplaceFileContent writes content and truncates at the new length, so a
// previous longer write leaves no residual trailing bytes. The write is
// in place, not rename-based; a crash mid-write can leave a truncated
// file. That matches the historical tool behavior.
func ReplaceFileContent(path string, content []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := f.Write(content)
	if err != nil {
		return err
	}
	return f.Truncate(int64(n))
}
