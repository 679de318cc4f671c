package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/craftpanel/tui/internal/app"
	"github.com/craftpanel/tui/internal/client"
	"github.com/craftpanel/tui/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to TUI config file")
	baseURL := flag.String("url", "", "Base URL of the control panel backend")
	username := flag.String("user", "", "Panel username")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.URL = *baseURL
	}
	if *username != "" {
		cfg.Username = *username
	}

	httpBase := strings.TrimRight(cfg.URL, "/")
	ws := client.NewWSClient(deriveWSURL(httpBase), cfg.Username, cfg.Password)
	httpClient := client.NewHTTPClient(httpBase, cfg.Username, cfg.Password)

	m := app.New(ws, httpClient)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveWSURL converts http://host:port to ws://host:port/ws
func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil || u.Host == "" {
		return "ws://127.0.0.1:3000/ws"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s/ws", scheme, u.Host, strings.TrimRight(u.Path, "/"))
}
