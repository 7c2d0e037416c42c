package userutils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zjuthesis/entrypoint/internal/userutils"
)

func TestLockFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		alreadyLocked bool
		parentMissing bool

		wantErr bool
	}{
		"Creates_lock_file_with_pid":       {},
		"Error_when_lock_is_already_held":  {alreadyLocked: true, wantErr: true},
		"Error_when_parent_dir_is_missing": {parentMissing: true, wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "group")
			if tc.alreadyLocked {
				err := userutils.LockFile(path)
				require.NoError(t, err, "Setup: first lock should succeed")
			}
			if tc.parentMissing {
				path = filepath.Join(path, "missing", "group")
			}

			err := userutils.LockFile(path)
			if tc.wantErr {
				require.Error(t, err, "LockFile should have failed")
				return
			}
			require.NoError(t, err, "LockFile should not have failed")

			content, err := os.ReadFile(path + ".lock")
			require.NoError(t, err, "Lock file should exist")
			require.Equal(t, fmt.Sprintf("%d", os.Getpid()), string(content), "Lock file should contain our PID")
		})
	}
}

func TestUnlockFile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		locked bool

		wantErr bool
	}{
		"Removes_lock_file":           {locked: true},
		"Error_when_lock_is_not_held": {wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "passwd")
			if tc.locked {
				err := userutils.LockFile(path)
				require.NoError(t, err, "Setup: lock should succeed")
			}

			err := userutils.UnlockFile(path)
			if tc.wantErr {
				require.Error(t, err, "UnlockFile should have failed")
				return
			}
			require.NoError(t, err, "UnlockFile should not have failed")

			_, err = os.Stat(path + ".lock")
			require.ErrorIs(t, err, os.ErrNotExist, "Lock file should be gone")
		})
	}
}
