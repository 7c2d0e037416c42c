// Package workspace manages the directory the target command runs from.
package workspace

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
	"github.com/zjuthesis/entrypoint/log"
)

// Owner returns the UID and GID owning the given path.
func Owner(path string) (uid, gid uint32, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, fmt.Errorf("failed to get raw stat for %q", path)
	}

	return stat.Uid, stat.Gid, nil
}

// Ensure makes sure the directory at path exists. An existing path is left
// untouched. A missing one is created with its parents and recursively
// assigned to uid:gid so the service account can write to it.
func Ensure(path string, uid, gid int) (err error) {
	defer decorate.OnError(&err, "could not ensure workspace %q", path)

	exists, err := fileutils.FileExists(path)
	if err != nil {
		return err
	}
	if exists {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return &os.PathError{Op: "mkdir", Path: path, Err: syscall.ENOTDIR}
		}
		return nil
	}

	log.Noticef(context.Background(), "Creating workspace directory %q", path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	return fileutils.ChownRecursive(path, uid, gid)
}
