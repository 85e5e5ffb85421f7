package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/sufield/entryadmin/internal/buildinfo"
)

// newManCommand generates manual pages. Shell completion is built into cobra.
func newManCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "man [directory]",
		Short: "Generate manual pages",
		Long: `Generate manual pages for entryadmin.

If no directory is specified, manual pages will be generated in the current directory.

Example:
  entryadmin man /usr/local/share/man/man1`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			header := &doc.GenManHeader{
				Title:   "ENTRYADMIN",
				Section: "1",
				Source:  "entryadmin " + buildinfo.Version,
				Manual:  "entryadmin Manual",
			}
			if err := doc.GenManTree(cmd.Root(), header, dir); err != nil {
				return fmt.Errorf("generate manual pages: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Manual pages generated in directory: %s\n", dir)
			return nil
		},
	}
}
