// Package consts defines the constants used by the project.
package consts

import "github.com/zjuthesis/entrypoint/log"

var (
	// Version is the version of the executable.
	Version = "Dev"
)

const (
	// DefaultLogLevel is the default logging level selected without any option.
	// State transitions (mount detection, renumbering) are logged at this level
	// so they show up without any verbosity flag.
	DefaultLogLevel = log.NoticeLevel

	// DefaultAccount is the service account the final command runs as.
	DefaultAccount = "zjuer"

	// DefaultGroup is the primary group of the service account.
	DefaultGroup = "zjuer"

	// DefaultWorkspace is the working directory used when WORKSPACE is unset or empty.
	DefaultWorkspace = "/workspace"

	// DefaultRunAsTool is the privilege-dropping wrapper the target command is handed to.
	DefaultRunAsTool = "gosu"

	// DefaultTexRoot is the document the word count starts from when no root is given.
	DefaultTexRoot = "body/graduate/content.tex"
)
