// Package reconcile aligns the service account identity with the ownership of
// the workspace mount and hands the process over to the target command.
package reconcile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
	"github.com/zjuthesis/entrypoint/internal/localentries"
	"github.com/zjuthesis/entrypoint/internal/mountpoints"
	"github.com/zjuthesis/entrypoint/internal/workspace"
	"github.com/zjuthesis/entrypoint/log"
	"golang.org/x/sys/unix"
)

// Config holds the reconciliation parameters.
type Config struct {
	// Workspace is the directory the target command runs from.
	Workspace string
	// Account is the service account the target command runs as.
	Account string
	// Group is the primary group of the service account.
	Group string
	// RunAs is the argv prefix of the privilege-dropping wrapper the target
	// command is handed to.
	RunAs []string
}

type options struct {
	// entryOptions are forwarded to the localentries operations. Tests use
	// them to point at fixture passwd and group files.
	entryOptions []localentries.Option
	// mountOptions are forwarded to the mount point detection.
	mountOptions []mountpoints.Option

	// lookPathFunc, chdirFunc and execFunc are the process-level side effects,
	// which can be overridden for testing purposes.
	lookPathFunc func(file string) (string, error)
	chdirFunc    func(dir string) error
	execFunc     func(argv0 string, argv []string, envv []string) error
}

var defaultOptions = options{
	lookPathFunc: exec.LookPath,
	chdirFunc:    os.Chdir,
	execFunc:     unix.Exec,
}

// Option represents an optional function to override reconcile default values.
type Option func(*options)

// WithEntryOptions forwards options to the passwd and group file operations.
func WithEntryOptions(args ...localentries.Option) Option {
	return func(o *options) {
		o.entryOptions = append(o.entryOptions, args...)
	}
}

// WithMountOptions forwards options to the mount point detection.
func WithMountOptions(args ...mountpoints.Option) Option {
	return func(o *options) {
		o.mountOptions = append(o.mountOptions, args...)
	}
}

// WithLookPathFunc overrides how the wrapper binary is resolved.
func WithLookPathFunc(f func(file string) (string, error)) Option {
	return func(o *options) {
		o.lookPathFunc = f
	}
}

// WithChdirFunc overrides how the working directory is changed.
func WithChdirFunc(f func(dir string) error) Option {
	return func(o *options) {
		o.chdirFunc = f
	}
}

// WithExecFunc overrides the final process replacement.
func WithExecFunc(f func(argv0 string, argv []string, envv []string) error) Option {
	return func(o *options) {
		o.execFunc = f
	}
}

// Run reconciles the service account with the workspace ownership and replaces
// the current process with the privilege-dropping wrapper running cmdArgs.
// It only returns on error: on success the process image is gone.
func Run(ctx context.Context, cfg Config, cmdArgs []string, args ...Option) error {
	opts := defaultOptions
	for _, arg := range args {
		arg(&opts)
	}

	// The account may legitimately be missing at this point: the empty
	// identity is carried into the comparison below, so a mount-backed
	// workspace then triggers a renumber attempt which reports the missing
	// account as its own failure.
	account, found, err := localentries.GetUserEntry(cfg.Account, opts.entryOptions...)
	if err != nil {
		return err
	}
	currentID := ""
	if found {
		currentID = fmt.Sprintf("%d:%d", account.UID, account.GID)
	}

	mountPoint, mounted, err := mountpoints.NearestMount(cfg.Workspace, opts.mountOptions...)
	if err != nil {
		return err
	}

	if mounted {
		log.Noticef(ctx, "Workspace %q is backed by mount point %q", cfg.Workspace, mountPoint)

		hostUID, hostGID, err := workspace.Owner(cfg.Workspace)
		if err != nil {
			return err
		}
		hostID := fmt.Sprintf("%d:%d", hostUID, hostGID)

		if currentID != hostID {
			if err := renumberAccount(ctx, cfg, account, hostUID, hostGID, opts); err != nil {
				return err
			}
			account.UID, account.GID = hostUID, hostGID
			found = true
		} else {
			log.Noticef(ctx, "Account %q already matches host owner %s, no remap needed", cfg.Account, hostID)
		}
	} else {
		log.Noticef(ctx, "Workspace %q is not mounted, keeping current identity of %q", cfg.Workspace, cfg.Account)
	}

	exists, err := fileutils.FileExists(cfg.Workspace)
	if err != nil {
		return err
	}
	if !exists {
		if !found {
			return fmt.Errorf("cannot create workspace %q: account %q does not exist", cfg.Workspace, cfg.Account)
		}
		if err := workspace.Ensure(cfg.Workspace, int(account.UID), int(account.GID)); err != nil {
			return err
		}
	}

	if err := opts.chdirFunc(cfg.Workspace); err != nil {
		return fmt.Errorf("could not enter workspace %q: %w", cfg.Workspace, err)
	}

	return execCommand(ctx, cfg, cmdArgs, opts)
}

// renumberAccount renumbers the service account and its group to the host IDs
// and re-owns the account's home directory. This is a destructive system
// mutation with no rollback path.
func renumberAccount(ctx context.Context, cfg Config, account localentries.UserEntry, hostUID, hostGID uint32, opts options) (err error) {
	defer decorate.OnError(&err, "could not align account %q with host owner %d:%d", cfg.Account, hostUID, hostGID)

	log.Noticef(ctx, "Renumbering account %q from %d:%d to %d:%d",
		cfg.Account, account.UID, account.GID, hostUID, hostGID)

	if err := localentries.RenumberUser(cfg.Account, hostUID, hostGID, opts.entryOptions...); err != nil {
		return err
	}
	if err := localentries.RenumberGroup(cfg.Group, hostGID, opts.entryOptions...); err != nil {
		return err
	}

	log.Debugf(ctx, "Re-owning home directory %q", account.Dir)
	return fileutils.ChownRecursive(account.Dir, int(hostUID), int(hostGID))
}

// execCommand replaces the current process with the privilege-dropping wrapper
// running the target command. It does not return on success.
func execCommand(ctx context.Context, cfg Config, cmdArgs []string, opts options) error {
	argv := slices.Clone(cfg.RunAs)
	argv = append(argv, cfg.Account)
	argv = append(argv, cmdArgs...)

	argv0, err := opts.lookPathFunc(argv[0])
	if err != nil {
		return fmt.Errorf("could not resolve wrapper %q: %w", argv[0], err)
	}

	log.Debugf(ctx, "Executing %q as %v", argv0, argv)
	return opts.execFunc(argv0, argv, os.Environ())
}
