package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modwalk/cartographer/internal/batch"
	"github.com/modwalk/cartographer/internal/cartographer"
	"github.com/modwalk/cartographer/internal/entry"
	"github.com/modwalk/cartographer/internal/entry/providers"
	"github.com/modwalk/cartographer/internal/graph"
	"github.com/modwalk/cartographer/internal/resolver"
)

var (
	printEntries bool
	verbose      bool
)

// graphCmd discovers entries from config (explicit, rootsTs, or glob
// providers), runs precise per-entry analysis through a Cartographer via
// internal/batch.Analyze, and writes the merged export graph built by
// internal/graph.FromFileRecord.
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Discover entry points from config and build a precise dependency graph from them",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg entry.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("config unmarshal: %w", err)
		}
		if cfg.Root == "" {
			cfg.Root = "."
		}
		out := viper.GetString("out")
		if out == "" {
			out = cfg.Out
		}

		if verbose {
			fmt.Fprintln(os.Stderr, "[graph] root =", cfg.Root, "out =", out)
			fmt.Fprintln(os.Stderr, "[graph] provider specs =", len(cfg.Entries))
		}

		provs, err := buildProviders(cfg.Entries)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		entries, err := discoverEntries(ctx, provs, cfg.Root)
		if err != nil {
			return err
		}

		if printEntries {
			for _, e := range entries {
				fmt.Fprintf(os.Stderr, "%s\t%s\n", e.Name, e.Path)
			}
			return nil
		}
		if len(entries) == 0 {
			return fmt.Errorf("no entries discovered; check your config")
		}

		res := resolver.New(resolver.DefaultConfig(), resolver.WithWorkingDirectory(cfg.Root))
		c := cartographer.New(cartographer.Config{Resolver: res})

		var progress batch.Progress
		if verbose {
			progress = func(done, total int) {
				fmt.Fprintf(os.Stderr, "[graph] %d/%d entries analyzed\n", done, total)
			}
		}
		results := batch.Analyze(ctx, c, entries, progress)

		merged := graph.New()
		var failed []string
		for _, r := range results {
			if r.Err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", r.Entry.Name, r.Err))
				continue
			}
			entryGraph := graph.FromFileRecord(r.Root)
			for _, n := range entryGraph.Nodes() {
				merged.Touch(n)
			}
			for _, e := range entryGraph.Edges() {
				merged.AddEdge(e.From, e.To)
			}
		}
		if len(failed) > 0 {
			fmt.Fprintln(os.Stderr, "[graph] entries failed to analyze:")
			for _, f := range failed {
				fmt.Fprintln(os.Stderr, "  -", f)
			}
		}

		return writeGraph(merged, out)
	},
}

// buildProviders maps configured entry specs to concrete providers.
func buildProviders(specs []entry.Spec) ([]entry.Provider, error) {
	var provs []entry.Provider
	for _, spec := range specs {
		switch spec.Type {
		case "rootsTs":
			provs = append(provs, providers.RootsTsProvider{File: spec.File, NameFrom: spec.NameFrom})
		case "explicit":
			provs = append(provs, providers.ExplicitProvider{Name: spec.Name, Path: spec.Path})
		case "glob":
			provs = append(provs, providers.GlobProvider{Pattern: spec.Pattern})
		default:
			return nil, fmt.Errorf("unknown entry provider type: %s", spec.Type)
		}
	}
	return provs, nil
}

// discoverEntries runs every provider and de-duplicates entries by the
// path each provider returns (relative when root is relative), first
// provider wins.
func discoverEntries(ctx context.Context, provs []entry.Provider, root string) ([]entry.Entry, error) {
	seen := map[string]bool{}
	var entries []entry.Entry
	for _, p := range provs {
		es, err := p.Discover(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, e := range es {
			if !seen[e.Path] {
				seen[e.Path] = true
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

func writeGraph(g *graph.Graph, out string) error {
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(g); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().BoolVar(&printEntries, "print-entries", false, "print discovered entries and exit")
	graphCmd.Flags().BoolVar(&verbose, "verbose", false, "verbose logging (providers, matches, progress)")
}
