// Copyright 2025 The HPOServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the HPO term search server and CLI [DBG] application.

HPOServe loads the Human Phenotype Ontology once, then serves substring
search over term labels, definitions and synonyms, keeps a selection of
terms, ranks terms related to that selection by precomputed similarity, and
exports the selection as CSV.

# Usage

Start the msgpack IPC server on stdin/stdout with the default dataset:

	hposerve

Use a specific dataset (file or URL) and enable debug mode:

	hposerve -data /path/to/hpo_data.json -d

Serve the HTTP API instead:

	hposerve -http -addr 127.0.0.1:8080

Run in CLI mode for interactive testing:

	hposerve -c -limit 10

# Configuration

Runtime configuration lives in a TOML file created with defaults when
missing, by default at ~/.config/hposerve/config.toml:

	[search]
	min_query = 2
	max_results = 50
	related_limit = 15
	cache_size = 512

	[dataset]
	path = "hpo_data.json"
	url = ""
	max_retries = 3
	fetch_timeout_sec = 30

	[http]
	addr = "127.0.0.1:8080"
	rate_per_sec = 20.0
	burst = 40
	allow_origins = ["*"]

Keys with the wrong type fall back to their defaults while the rest of the
file still applies. Flags override the file.

# IPC Protocol

See package server for the message shapes. A short session:

	{"id": "1", "cmd": "search", "q": "seizure"}
	{"id": "2", "cmd": "select", "term": "HP:0001250"}
	{"id": "3", "cmd": "export"}

# Command Line Flags

	-data string
	    Dataset file or URL (default from config)
	-config string
	    Path to a config file
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-http
	    Serve the HTTP API instead of IPC
	-addr string
	    HTTP listen address (default from config)
	-limit int
	    Number of results the CLI prints
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/hposerve/internal/app"
	"github.com/bastiangx/hposerve/internal/cli"
	"github.com/bastiangx/hposerve/internal/logger"
	"github.com/bastiangx/hposerve/pkg/config"
	"github.com/bastiangx/hposerve/pkg/httpapi"
	"github.com/bastiangx/hposerve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "hposerve"
	gh      = "https://github.com/bastiangx/hposerve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow; loading, serving and the REPL live in their packages.
func main() {
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	dataSource := flag.String("data", "", "Dataset file or URL (default from config)")
	configPath := flag.String("config", "", "Path to a config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	httpMode := flag.Bool("http", false, "Serve the HTTP API instead of IPC")
	addr := flag.String("addr", "", "HTTP listen address (default from config)")
	limit := flag.Int("limit", 0, fmt.Sprintf("Number of results the CLI prints (default %d)", defaultConfig.CLI.DefaultLimit))

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)
	if !*debugMode {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedConfig))

	if *addr != "" {
		appConfig.HTTP.Addr = *addr
	}
	if *limit > 0 {
		appConfig.CLI.DefaultLimit = *limit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loaded, err := app.Load(ctx, appConfig, *dataSource)
	if err != nil {
		log.Errorf("Failed to load dataset: %v", err)
		os.Exit(app.ExitCode(err))
	}

	// CLI is mainly for testing and dbg purposes.
	if *cliMode {
		stop()
		sigHandler()
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(loaded.Engine, appConfig.CLI.DefaultLimit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if *httpMode {
		api := httpapi.NewServer(loaded.Engine, httpapi.Config{
			Addr:         appConfig.HTTP.Addr,
			RatePerSec:   appConfig.HTTP.RatePerSec,
			Burst:        appConfig.HTTP.Burst,
			AllowOrigins: appConfig.HTTP.AllowOrigins,
			Version:      loaded.Dataset.Version,
		})
		showStartupInfo(loaded)
		if err := api.Run(ctx); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	stop()
	sigHandler()
	log.Debug("spawning IPC")
	srv := server.NewServer(loaded.Engine, loaded.Dataset.Version)
	showStartupInfo(loaded)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ HPOServe ] Phenotype term search, selection and export")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(loaded *app.Loaded) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	stats := loaded.Engine.Stats()
	version := loaded.Dataset.Version
	if version == "" {
		version = "unknown"
	}

	println("==========")
	println(" HPOServe ")
	println("==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dataset: ( %s )", loaded.Source)
	log.Infof("hpo version: %s", version)
	log.Infof("terms: %d", stats["totalTerms"])
	log.Info("status: ready")
	println("==========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
