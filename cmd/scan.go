package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modwalk/cartographer/internal/fastscan"
)

// scanCmd wires internal/fastscan.Walk behind a CLI subcommand: a quick,
// regex-based, whole-tree approximate graph, as opposed to graphCmd's
// precise entry-rooted Cartographer analysis.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Quickly scan the whole workspace and output an approximate dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString("root")
		out := viper.GetString("out")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		g, err := fastscan.Walk(ctx, root, fastscan.Options{})
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}

		return writeGraph(g, out)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
