// Package cmd wires the module dependency graph builder up to a cobra/viper
// CLI: persistent flags layered under an optional config file and
// CARTOGRAPHER_-prefixed env vars, with subcommands backed by
// internal/cartographer, internal/fastscan, internal/batch, and
// internal/graph.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cfgFile is an optional explicit path to a config file; when empty we look
// for ./cartographer.config.{json,yaml,toml}.
var cfgFile string

var workspace string
var outputFile string

var rootCmd = &cobra.Command{
	Use:   "cartographer",
	Short: "Module dependency graphing and impact analysis for JS/TS trees",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(".")
			viper.SetConfigName("cartographer.config")
		}

		viper.SetEnvPrefix("CARTOGRAPHER")
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
		return nil
	},
}

// Execute is called from cmd/cartographer/main.go and runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cartographer.config.{json,yaml,toml})")
	rootCmd.PersistentFlags().StringVar(&workspace, "root", ".", "repo root to scan")
	rootCmd.PersistentFlags().StringVar(&outputFile, "out", "", "write graph JSON to file")

	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("out", rootCmd.PersistentFlags().Lookup("out"))
}
