package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cellmap",
		Short: "Cell site sector mapping server and tools",
		Long: `cellmap serves the sector mapping API and converts cell site
spreadsheets into KML, KMZ and text reports from the command line.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newKMLCmd(), newReportCmd(), newDistanceCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
