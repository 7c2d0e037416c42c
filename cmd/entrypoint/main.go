// Package main is the container entrypoint binary.
package main

import (
	"context"
	"os"

	"github.com/zjuthesis/entrypoint/cmd/entrypoint/entry"
	"github.com/zjuthesis/entrypoint/internal/consts"
	"github.com/zjuthesis/entrypoint/log"
)

func main() {
	a := entry.New()
	os.Exit(run(a))
}

type app interface {
	Run() error
	UsageError() bool
}

func run(a app) int {
	log.SetLevel(consts.DefaultLogLevel)
	log.InitJournalHandler(false)

	if err := a.Run(); err != nil {
		log.Error(context.Background(), err)

		if a.UsageError() {
			return 2
		}
		return 1
	}

	// Not reached on the successful path: the process image was replaced by
	// the target command.
	return 0
}
