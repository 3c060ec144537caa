package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/emarket/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (optional, defaults to ~/.config/emarket/config.toml)")
	envFile := flag.String("env", ".env", "dotenv file with EMARKET_* overrides (optional)")
	apiURL := flag.String("api", "", "backend base URL (optional, overrides config)")
	pollSeconds := flag.Int("poll", 0, "reconcile interval in seconds (optional, defaults to 30s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, APIURL: *apiURL}
	if *envFile != "" {
		opts.EnvFiles = []string{*envFile}
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = time.Duration(poll) * time.Second
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "emarket: %v\n", err)
		return 1
	}
	return 0
}
