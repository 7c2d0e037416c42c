// Package userutils provides functions related to system users and groups.
package userutils

import (
	"errors"
	"fmt"
	"os"
)

// LockFile creates a lock file at <path>.lock, the same location used by the
// shadow tools (usermod, groupmod, gpasswd) to prevent concurrent modifications
// to the passwd and group files.
// The lock file contains the PID of the process that created it.
func LockFile(path string) (err error) {
	lockFile, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer func() {
		closeErr := lockFile.Close()
		err = errors.Join(err, closeErr)
	}()

	if _, err := lockFile.WriteString(fmt.Sprintf("%d", os.Getpid())); err != nil {
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	return nil
}

// UnlockFile removes the lock file created by LockFile.
func UnlockFile(path string) error {
	if err := os.Remove(path + ".lock"); err != nil {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
