// Package localentries provides functions to read the local passwd and group
// files and to renumber the UID/GID of a local user and group.
package localentries

import (
	"github.com/zjuthesis/entrypoint/internal/userutils"
)

const (
	// PasswdFile is the default local passwd file.
	PasswdFile = "/etc/passwd"
	// GroupFile is the default local group file.
	GroupFile = "/etc/group"
)

type options struct {
	// passwdInputPath is the path used to read the passwd file. Defaults to
	// [PasswdFile], but can be overwritten in tests.
	passwdInputPath string
	// passwdOutputPath is the path used to write the passwd file. Defaults to
	// [PasswdFile], but can be overwritten in tests.
	passwdOutputPath string
	// groupInputPath is the path used to read the group file. Defaults to
	// [GroupFile], but can be overwritten in tests.
	groupInputPath string
	// groupOutputPath is the path used to write the group file. Defaults to
	// [GroupFile], but can be overwritten in tests.
	groupOutputPath string

	// lockFunc and unlockFunc hold the shadow-style lock discipline applied
	// around writes. They can be overridden for testing purposes.
	lockFunc   func(path string) error
	unlockFunc func(path string) error
}

var defaultOptions = options{
	passwdInputPath:  PasswdFile,
	passwdOutputPath: PasswdFile,
	groupInputPath:   GroupFile,
	groupOutputPath:  GroupFile,

	lockFunc:   userutils.LockFile,
	unlockFunc: userutils.UnlockFile,
}

// Option represents an optional function to override localentries default values.
type Option func(*options)

// WithPasswdPath overrides the default path of the passwd file.
func WithPasswdPath(path string) Option {
	return func(o *options) {
		o.passwdInputPath = path
		o.passwdOutputPath = path
	}
}

// WithGroupPath overrides the default path of the group file.
func WithGroupPath(path string) Option {
	return func(o *options) {
		o.groupInputPath = path
		o.groupOutputPath = path
	}
}

// WithoutLocking disables the lock-file discipline around writes.
func WithoutLocking() Option {
	return func(o *options) {
		o.lockFunc = func(string) error { return nil }
		o.unlockFunc = func(string) error { return nil }
	}
}
