// Command ironlog-mcp serves the IronLog MCP tools over stdio, reading from a
// remote IronLog server through its REST API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/ironlog/internal/client"
	"github.com/meltforce/ironlog/internal/logging"
	"github.com/meltforce/ironlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("IRONLOG_URL"), "IronLog server URL (env IRONLOG_URL)")
	apiKey := flag.String("api-key", os.Getenv("IRONLOG_API_KEY"), "API key (env IRONLOG_API_KEY)")
	logFile := flag.String("log-file", "", "log to this file; stdout carries the MCP protocol")
	flag.Parse()

	if *serverURL == "" {
		fmt.Fprintln(os.Stderr, "Usage: ironlog-mcp -server https://ironlog.example.ts.net [-api-key KEY]")
		os.Exit(1)
	}

	log, closer := logging.Setup(logging.Params{Level: "info", FileName: *logFile, Stderr: true})
	defer closer.Close()

	ds := client.New(*serverURL, client.WithAPIKey(*apiKey))
	s := mcp.New(ds, Version, log)

	log.Info("ironlog-mcp starting", "server", *serverURL, "version", Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}
