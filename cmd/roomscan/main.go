// Command roomscan is the operator CLI: run detection on a local blueprint
// file or query a running daemon for job status.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "roomscan",
		Short:         "Blueprint room detection toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDetectCmd(), newStatusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "roomscan:", err)
		os.Exit(1)
	}
}
