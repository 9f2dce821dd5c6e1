// Command texteditmcp runs the line-oriented text editor MCP server: a
// hash-guarded read/write edit engine exposed over stdio (default) or
// streamable HTTP.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"texteditmcp/internal/config"
	"texteditmcp/internal/editengine"
	"texteditmcp/internal/mcpserver"
	"texteditmcp/internal/peg"
)

func main() {
	cfg := loadAndValidateConfig()
	initializeLogger(cfg.Transport)
	logEffectiveConfig(cfg)

	guard, err := peg.NewGuard(cfg.AllowRoots)
	if err != nil {
		log.Printf("CRITICAL: invalid allow-root configuration: %v\n", err)
		os.Exit(1)
	}
	eng := editengine.New(guard, cfg.MaxFileSizeMB, cfg.MaxLineCount)
	server := mcpserver.New(eng, cfg.DefaultEncoding, cfg.AllowRoots)
	log.Println("Core services initialized successfully.")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	serverDoneChan := make(chan error, 1)
	go func() {
		switch cfg.Transport {
		case "http":
			addr := fmt.Sprintf(":%d", cfg.Port)
			log.Printf("Starting streamable HTTP transport on %s...\n", addr)
			serverDoneChan <- mcpserver.ServeHTTP(server, addr)
		default:
			log.Println("Starting stdio transport...")
			serverDoneChan <- mcpserver.ServeStdio(server)
		}
	}()

	select {
	case sig := <-shutdownChan:
		log.Printf("Shutdown signal received: %s. Exiting without waiting for the transport.\n", sig)
	case err := <-serverDoneChan:
		if err != nil {
			log.Printf("Server stopped due to error: %v\n", err)
			os.Exit(1)
		}
		log.Println("Server stopped normally.")
	}

	log.Println("Application shutting down.")
}

func loadAndValidateConfig() *config.Config {
	cfg := config.ParseFlags()
	if err := cfg.Validate(); err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Printf("CRITICAL: configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func initializeLogger(transportType string) {
	if transportType == "stdio" {
		// tool responses ride stdout; keep logs off it entirely.
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(os.Stdout)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("Logger initialized.")
}

func logEffectiveConfig(cfg *config.Config) {
	log.Println("Effective configuration:")
	log.Printf("  Allow roots: %v\n", cfg.AllowRoots)
	log.Printf("  Transport: %s\n", cfg.Transport)
	if cfg.Transport == "http" {
		log.Printf("  HTTP port: %d\n", cfg.Port)
	}
	log.Printf("  Default encoding: %s\n", cfg.DefaultEncoding)
	log.Printf("  Max file size (MB): %d\n", cfg.MaxFileSizeMB)
	log.Printf("  Max line count: %d\n", cfg.MaxLineCount)
}
