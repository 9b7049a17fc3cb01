// Package main provides the lightweight entry point for the CVD Risk MCP
// Server. This version requires no external databases, using SQLite for the
// evaluation history.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/smart-cvd-risk-server/internal/config"
	"github.com/smart-cvd-risk-server/internal/mcp"
)

func main() {
	// Load lightweight configuration
	cfg := config.LoadLiteConfig()

	log.Printf("Starting CVD Risk MCP Server (Lite)")
	log.Printf("Data directory: %s", cfg.DataDir)

	// Create lite MCP server
	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("CVD Risk MCP Server (Lite) stopped")
}
