package entry

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zjuthesis/entrypoint/internal/consts"
)

// installVersion adds a version subcommand printing the binary version.
func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Returns version of %s and exits", cmdName),
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return getVersion() },
	}
	a.rootCmd.AddCommand(cmd)
}

// getVersion displays the current version of the binary.
func getVersion() (err error) {
	fmt.Printf("%s\t%s\n", cmdName, consts.Version)
	return nil
}
