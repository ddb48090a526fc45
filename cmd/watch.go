package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/modwalk/cartographer/internal/batch"
	"github.com/modwalk/cartographer/internal/cartographer"
	"github.com/modwalk/cartographer/internal/entry"
	"github.com/modwalk/cartographer/internal/graph"
	"github.com/modwalk/cartographer/internal/resolver"
)

var (
	watchGraphOut  string
	watchEventsOut string
)

// watchCmd watches the workspace and rebuilds the graph on changes,
// emitting the impacted node set alongside it, via fsnotify recursive
// watching with a debounce timer over internal/entry + internal/batch +
// internal/graph.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch source files, rebuild the graph, and emit impacted nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchGraphOut == "" {
			return fmt.Errorf("--graph is required (output graph.json path)")
		}
		var cfg entry.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("config unmarshal: %w", err)
		}
		if cfg.Root == "" {
			cfg.Root = "."
		}
		if abs, err := filepath.Abs(cfg.Root); err == nil {
			cfg.Root = filepath.Clean(abs)
		}
		if watchEventsOut == "" {
			watchEventsOut = filepath.Join(filepath.Dir(watchGraphOut), "events.json")
		}

		provs, err := buildProviders(cfg.Entries)
		if err != nil {
			return err
		}

		res := resolver.New(resolver.DefaultConfig(), resolver.WithWorkingDirectory(cfg.Root))
		c := cartographer.New(cartographer.Config{Resolver: res})

		build := func(ctx context.Context, changed []string) (*graph.Graph, []string, error) {
			entries, err := discoverEntries(ctx, provs, cfg.Root)
			if err != nil {
				return nil, nil, err
			}
			results := batch.Analyze(ctx, c, entries, nil)

			g := graph.New()
			for _, r := range results {
				if r.Err != nil {
					continue
				}
				eg := graph.FromFileRecord(r.Root)
				for _, n := range eg.Nodes() {
					g.Touch(n)
				}
				for _, e := range eg.Edges() {
					g.AddEdge(e.From, e.To)
				}
			}
			return g, impactedForChanges(cfg.Root, g, changed), nil
		}

		if err := doRebuild(build, watchGraphOut, watchEventsOut, nil); err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		if err := addRecursive(watcher, cfg.Root); err != nil {
			return err
		}

		var mu sync.Mutex
		pending := map[string]struct{}{}
		var timer *time.Timer
		flush := func() {
			mu.Lock()
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			pending = map[string]struct{}{}
			mu.Unlock()
			_ = doRebuild(build, watchGraphOut, watchEventsOut, files)
		}

		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						_ = addRecursive(watcher, ev.Name)
						continue
					}
				}
				if isWatchedFile(ev.Name) {
					mu.Lock()
					p := ev.Name
					if !filepath.IsAbs(p) {
						if a, err := filepath.Abs(p); err == nil {
							p = a
						}
					}
					pending[filepath.Clean(p)] = struct{}{}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(300*time.Millisecond, flush)
					mu.Unlock()
				}
			case err := <-watcher.Errors:
				fmt.Fprintln(os.Stderr, "watch error:", err)
			}
		}
	},
}

func isWatchedFile(p string) bool {
	l := strings.ToLower(p)
	return strings.HasSuffix(l, ".ts") || strings.HasSuffix(l, ".tsx") || strings.HasSuffix(l, ".js") || strings.HasSuffix(l, ".jsx")
}

func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "dist" || name == "build" {
				if path != root {
					return filepath.SkipDir
				}
				return nil
			}
			_ = w.Add(path)
		}
		return nil
	})
}

func impactedForChanges(root string, g *graph.Graph, changed []string) []string {
	if g == nil || len(changed) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, c := range changed {
		if !filepath.IsAbs(c) {
			if a, err := filepath.Abs(filepath.Join(root, c)); err == nil {
				c = a
			}
		}
		c = filepath.Clean(c)
		for _, imp := range g.Impacted(c) {
			if _, ok := seen[imp]; ok {
				continue
			}
			seen[imp] = struct{}{}
			out = append(out, imp)
		}
	}
	return out
}

func doRebuild(build func(context.Context, []string) (*graph.Graph, []string, error), outGraph, outEvents string, changed []string) error {
	g, impacted, err := build(context.Background(), changed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build error:", err)
	}
	if g != nil {
		if err := writeJSONFile(outGraph, g); err != nil {
			fmt.Fprintln(os.Stderr, "write graph:", err)
		}
	}
	evt := struct {
		Timestamp int64    `json:"ts"`
		Changed   []string `json:"changed"`
		Impacted  []string `json:"impacted"`
	}{Timestamp: time.Now().UnixMilli(), Changed: changed, Impacted: impacted}
	if err := writeJSONFile(outEvents, evt); err != nil {
		fmt.Fprintln(os.Stderr, "write events:", err)
	}
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchGraphOut, "graph", "", "output graph.json path")
	watchCmd.Flags().StringVar(&watchEventsOut, "events", "", "output events.json path (default: sibling of --graph)")
}
