package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including commit and Go version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if extended {
			// Extended version output
			fmt.Printf("%s %s\n", binaryName, versionInfo.Version)
			fmt.Printf("Commit: %s\n", versionInfo.Commit)
			fmt.Printf("Built: %s\n", versionInfo.BuildDate)
			fmt.Printf("Go: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		} else {
			// Basic version output
			fmt.Printf("%s %s\n", binaryName, versionInfo.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
