package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"podboard/internal/app"
	"podboard/internal/config"
	"podboard/internal/logging"
	"podboard/internal/repl"
	"podboard/internal/storage"
)

func main() {
	catalogDir := flag.String("dir", "", "catalog directory (overrides configuration)")
	listOnly := flag.Bool("list", false, "print catalog titles and diagnostics and exit")
	processURL := flag.String("process", "", "process a feed URL, print the resulting record and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to resolve home directory: %v", err)
	}

	baseDir := filepath.Join(home, ".podboard")
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		log.Fatalf("failed to create config directory: %v", err)
	}

	logFile := logging.Configure(filepath.Join(baseDir, "podboard.log"))
	defer logFile.Close()

	configPath := filepath.Join(baseDir, "config.yaml")
	cfg, err := config.Ensure(ctx, configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *catalogDir != "" {
		cfg.CatalogDir = *catalogDir
	}

	db, err := storage.Open(filepath.Join(baseDir, "app.db"))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	application := app.New(cfg, configPath, db)
	defer application.Close()

	if err := application.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *listOnly && *processURL != "" {
		fmt.Fprintln(os.Stderr, "error: -list and -process cannot be used together")
		os.Exit(1)
	}

	if *listOnly {
		for _, title := range application.Catalog().Titles() {
			fmt.Fprintln(os.Stdout, title)
		}
		for _, d := range application.Diagnostics() {
			fmt.Fprintln(os.Stderr, d)
		}
		return
	}

	if *processURL != "" {
		rec, err := application.Process(ctx, *processURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, application.Render(rec, 80))
		return
	}

	if err := repl.Run(ctx, application); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
