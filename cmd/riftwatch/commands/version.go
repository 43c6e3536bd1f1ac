package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riftwatch/riftwatch/version"
)

// VersionCmd prints build information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().String())
	},
}
