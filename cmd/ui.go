package cmd

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

//go:embed ui_static/*
var uiFS embed.FS

var (
	uiAddr   string
	uiGraph  string
	uiEvents string
)

// uiCmd serves a small static D3 viewer for graph.json, with a websocket
// push on file change so the browser re-fetches without a manual reload.
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Serve a local UI for viewing graph.json as a force-directed graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		if uiGraph == "" {
			return fmt.Errorf("--graph is required (path to graph.json)")
		}
		f, err := os.Open(uiGraph)
		if err != nil {
			return fmt.Errorf("open --graph: %w", err)
		}
		defer f.Close()
		var tmp interface{}
		if err := json.NewDecoder(f).Decode(&tmp); err != nil {
			return fmt.Errorf("invalid graph JSON: %w", err)
		}

		if uiEvents == "" {
			uiEvents = strings.TrimSuffix(uiGraph, filepath.Ext(uiGraph)) + "-events.json"
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			switch {
			case p == "/":
				p = "/ui_static/index.html"
			case p == "/app.js" || p == "/styles.css":
				p = "/ui_static" + p
			case p == "/favicon.ico":
				w.WriteHeader(http.StatusNoContent)
				return
			case p == "/graph.json":
				serveGraphJSON(w, uiGraph)
				return
			case p == "/events.json":
				serveGraphJSON(w, uiEvents)
				return
			case p == "/ws":
				serveWS(w, r)
				return
			default:
				p = "/ui_static" + p
			}

			p = strings.TrimPrefix(p, "/")
			file, err := uiFS.Open(p)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			defer file.Close()

			if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
				w.Header().Set("Content-Type", ct)
			}
			w.Header().Set("Cache-Control", "no-store")
			io.Copy(w, file)
		})

		startFileWatcher(uiGraph, uiEvents)
		log.Printf("UI listening on http://localhost%s (graph: %s, events: %s)\n", uiAddr, uiGraph, uiEvents)
		return http.ListenAndServe(uiAddr, mux)
	},
}

func serveGraphJSON(w http.ResponseWriter, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	io.Copy(w, f)
}

var (
	wsUpgrader  = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	wsClientsMu sync.Mutex
	wsClients   = map[*websocket.Conn]struct{}{}
)

func serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wsClientsMu.Lock()
	wsClients[conn] = struct{}{}
	wsClientsMu.Unlock()
	go func() {
		defer func() {
			wsClientsMu.Lock()
			delete(wsClients, conn)
			wsClientsMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func wsBroadcast() {
	wsClientsMu.Lock()
	for c := range wsClients {
		_ = c.WriteControl(websocket.PingMessage, []byte("1"), time.Now().Add(2*time.Second))
		_ = c.WriteMessage(websocket.TextMessage, []byte("update"))
	}
	wsClientsMu.Unlock()
}

func startFileWatcher(graphPath, eventsPath string) {
	go func() {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Println("ui watcher:", err)
			return
		}
		defer watcher.Close()
		add := func(p string) {
			if p != "" {
				_ = watcher.Add(filepath.Dir(p))
			}
		}
		add(graphPath)
		add(eventsPath)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name == graphPath || ev.Name == eventsPath {
					wsBroadcast()
				}
			case err := <-watcher.Errors:
				log.Println("ui watcher error:", err)
			}
		}
	}()
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().StringVar(&uiAddr, "addr", ":8080", "address to listen on (e.g. :8080)")
	uiCmd.Flags().StringVar(&uiGraph, "graph", "", "path to graph.json to serve at /graph.json")
	uiCmd.Flags().StringVar(&uiEvents, "events", "", "path to events.json to serve at /events.json")
}
