/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/adaryorg/ghostyle/internal/config"
	"github.com/adaryorg/ghostyle/internal/daemon"
	"github.com/adaryorg/ghostyle/internal/logging"
	"github.com/adaryorg/ghostyle/internal/version"
)

func main() {
	// Define command line flags
	configFlag := flag.String("config", "", "Path to the config file (default ~/.config/ghostyle/config.toml)")
	listenFlag := flag.String("listen", "", "Override the listen address from the config file")
	versionFlag := flag.Bool("version", false, "Display version and build information")
	versionShort := flag.Bool("v", false, "Display version and build information")
	flag.Parse()

	// Show version if requested
	if *versionFlag || *versionShort {
		fmt.Println(version.String("ghostyled"))
		os.Exit(0)
	}

	configPath := *configFlag
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			log.Fatalf("Failed to locate configuration: %v", err)
		}
	}

	var cfg *config.Config
	var err error
	if *configFlag == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configPath)
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenFlag != "" {
		cfg.Server.Listen = *listenFlag
	}

	// Initialize logging with file rotation and configured level
	err = logging.InitLogger(
		cfg.Logging.LogFile,
		cfg.Logging.Level,
		cfg.Logging.MaxAge,
		cfg.Logging.MaxSize,
		cfg.Logging.MaxBackups,
	)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	logging.Info("Starting ghostyle daemon with log level: %s", cfg.Logging.Level)
	logging.Info("Config file: %s", configPath)
	logging.Info("Database: %s", cfg.Database.Path)

	d, err := daemon.New(configPath, cfg)
	if err != nil {
		logging.Error("Failed to start daemon: %v", err)
		log.Fatalf("Failed to start daemon: %v", err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logging.Info("Received %s, shutting down", sig)
		cancel()
	}()

	if err := d.Run(ctx); err != nil {
		logging.Error("Daemon failed: %v", err)
		d.Close()
		log.Fatalf("Daemon failed: %v", err)
	}
	logging.Info("Daemon stopped")
}
