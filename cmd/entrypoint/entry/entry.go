// Package entry implements the command line surface of the entrypoint.
package entry

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
	"github.com/zjuthesis/entrypoint/internal/consts"
	"github.com/zjuthesis/entrypoint/internal/reconcile"
	"github.com/zjuthesis/entrypoint/log"
)

// cmdName is the binary name for the entrypoint.
const cmdName = "entrypoint"

// App encapsulates commands and options of the entrypoint, which can be
// controlled by env variables and config files.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  appConfig

	reconcileOptions []reconcile.Option
}

// appConfig defines configuration parameters of the entrypoint.
type appConfig struct {
	Verbosity int
	Workspace string
	Account   string
	Group     string
	RunAs     []string
}

type option func(*App)

// New registers commands and returns a new App.
func New(args ...option) *App {
	a := App{}
	for _, arg := range args {
		arg(&a)
	}

	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND [ARG...]", cmdName),
		Short: "Workspace ownership reconciling entrypoint",
		Long: "Entrypoint aligning the service account with the owner of the workspace mount " +
			"before executing the given command as that account.",
		Args: cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			// Set config defaults
			a.config = appConfig{
				Workspace: consts.DefaultWorkspace,
				Account:   consts.DefaultAccount,
				Group:     consts.DefaultGroup,
				RunAs:     []string{consts.DefaultRunAsTool},
			}

			// Install and unmarshal configuration
			if err := initViperConfig(cmdName, &a.rootCmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			// An empty WORKSPACE counts as unset.
			if a.config.Workspace == "" {
				a.config.Workspace = consts.DefaultWorkspace
			}

			setVerboseMode(a.config.Verbosity)
			log.Debugf(context.Background(), "Verbosity: %d", a.config.Verbosity)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.reconcileAndExec(a.config, args)
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	// The target command owns everything after the first positional argument,
	// including flag-looking arguments.
	a.rootCmd.Flags().SetInterspersed(false)

	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)

	// subcommands
	a.installVersion()
	a.installCountWords()

	return &a
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, vip *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v" /*i18n.G(*/, "issue INFO (-v), DEBUG (-vv)") //)
	decorate.LogOnError(vip.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")))
	return r
}

// reconcileAndExec aligns the service account with the workspace owner and
// hands the process over to the target command. It only returns on error.
func (a *App) reconcileAndExec(config appConfig, cmdArgs []string) error {
	cfg := reconcile.Config{
		Workspace: config.Workspace,
		Account:   config.Account,
		Group:     config.Group,
		RunAs:     config.RunAs,
	}

	return reconcile.Run(context.Background(), cfg, cmdArgs, a.reconcileOptions...)
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
func (a *App) Run() error {
	return a.rootCmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// RootCmd returns a copy of the root command for the app.
// Shouldn't be in general necessary apart when running generators.
func (a App) RootCmd() cobra.Command {
	return a.rootCmd
}
