package cmd

import (
	"fmt"
	"runtime"

	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", conf.APP_NAME, conf.Version)
		fmt.Fprintf(out, "  commit:     %s\n", conf.Commit)
		fmt.Fprintf(out, "  built at:   %s\n", conf.BuildTime)
		fmt.Fprintf(out, "  go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
