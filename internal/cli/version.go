package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sufield/entryadmin/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version and build information for entryadmin.",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUsage, err)
			}

			info := buildinfo.Get()
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprintf(out, "Version:    %s\n", info.Version)
				fmt.Fprintf(out, "Commit:     %s\n", info.CommitHash)
				fmt.Fprintf(out, "Build Time: %s\n", info.BuildTime)
				fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
				fmt.Fprintf(out, "Platform:   %s\n", info.Platform)
				return nil
			case "json":
				return writeJSON(out, info)
			case "yaml":
				return writeYAML(out, info)
			default:
				return fmt.Errorf("%w: unsupported format %q, use text, json or yaml", ErrUsage, format)
			}
		},
	}
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}
