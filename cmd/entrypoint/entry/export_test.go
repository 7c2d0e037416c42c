package entry

import (
	"testing"

	"github.com/zjuthesis/entrypoint/internal/reconcile"
)

// AppConfig is the configuration type of the app, exported for tests.
type AppConfig = appConfig

func withReconcileOptions(args ...reconcile.Option) option {
	return func(a *App) {
		a.reconcileOptions = append(a.reconcileOptions, args...)
	}
}

// NewForTests creates a new App with given args and reconciliation overrides for tests.
func NewForTests(t *testing.T, reconcileOpts []reconcile.Option, args ...string) *App {
	t.Helper()

	a := New(withReconcileOptions(reconcileOpts...))
	a.SetArgs(args...)
	return a
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args ...string) {
	a.rootCmd.SetArgs(args)
}

// Config returns the applied configuration after Run. Shouldn't be in general necessary apart for tests.
func (a App) Config() AppConfig {
	return a.config
}
