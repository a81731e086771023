package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	liftmcp "github.com/liftlog/liftlog/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// main serves the LiftLog MCP tools on stdio, reading data from a running
// LiftLog server with the caller's access token.
func main() {
	baseURL := flag.String("url", os.Getenv("LIFTLOG_URL"), "LiftLog server URL")
	token := flag.String("token", os.Getenv("LIFTLOG_TOKEN"), "access token from /api/v1/auth/signin")
	flag.Parse()

	// stdout carries the protocol
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *baseURL == "" || *token == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -url https://liftlog.example.ts.net -token <access token>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	s := liftmcp.New(liftmcp.NewHTTPClient(*baseURL, *token), Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("serve MCP", "error", err)
		os.Exit(1)
	}
}
