package entry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zjuthesis/entrypoint/internal/consts"
	"github.com/zjuthesis/entrypoint/internal/fileutils"
	"github.com/zjuthesis/entrypoint/internal/texcount"
)

// installCountWords adds a count-words subcommand reporting the word counts of
// the LaTeX source tree in the workspace.
func (a *App) installCountWords() {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "count-words [ROOT_TEX]",
		Short: "Counts the prose words of the LaTeX source tree and exits",
		Long: "Counts Chinese characters and latin words per file, following \\input and " +
			"\\include references from the given root document.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := consts.DefaultTexRoot
			if len(args) > 0 {
				root = args[0]
			}
			return countWords(root, maxDepth)
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "maximum tree depth to display (0 for no limit)")
	a.rootCmd.AddCommand(cmd)
}

func countWords(root string, maxDepth int) error {
	exists, err := fileutils.FileExists(root)
	if err != nil {
		return err
	}
	if !exists {
		// A bare file name is looked up next to the default root document.
		alt := filepath.Join(filepath.Dir(consts.DefaultTexRoot), root)
		if altExists, err := fileutils.FileExists(alt); err == nil && altExists {
			root = alt
		} else {
			return fmt.Errorf("root file %q not found", root)
		}
	}

	texcount.WriteReport(os.Stdout, texcount.Count(root), maxDepth)
	return nil
}
