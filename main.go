// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// fitplan is a terminal app that generates weekly exercise plans from a
// local Ollama-compatible model host.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/fitplan-tui/internal/config"
	"github.com/jeranaias/fitplan-tui/internal/ollama"
	"github.com/jeranaias/fitplan-tui/internal/session"
	"github.com/jeranaias/fitplan-tui/internal/ui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	var (
		flagHost    = flag.String("host", "", "model host URL (overrides config)")
		flagModel   = flag.String("model", "", "model to use (overrides config)")
		flagConfig  = flag.String("config", "", "path to config file")
		flagVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Println("fitplan " + Version)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "fitplan requires an interactive terminal")
		os.Exit(1)
	}

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fitplan: %v\n", err)
		os.Exit(1)
	}

	if *flagHost != "" {
		cfg.Local.Host = *flagHost
	}
	if *flagModel != "" {
		cfg.DefaultModel = *flagModel
		cfg.Local.PreferredModel = *flagModel
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		Host:          cfg.Local.Host,
		APIKey:        cfg.Local.APIKey,
		ProbeTimeout:  time.Duration(cfg.Local.ProbeTimeoutSecs) * time.Second,
		StreamTimeout: time.Duration(cfg.Local.StreamTimeoutSecs) * time.Second,
		DefaultModel:  cfg.DefaultModel,
	})

	sess := session.New(client, cfg)

	program := tea.NewProgram(ui.New(sess, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "fitplan: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}
