package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"movedblocks/internal/detector"
	"movedblocks/internal/httpapi"
	"movedblocks/internal/logging"
)

func main() {
	var addr string
	var requestTimeout time.Duration
	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.DurationVar(&requestTimeout, "timeout", 30*time.Second, "Per-request timeout enforced at the transport edge")
	flag.Parse()

	logFile, err := logging.Setup()
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg := detector.DefaultConfig()
	router := httpapi.NewRouter(cfg)
	handler := http.TimeoutHandler(router, requestTimeout, `{"error":"request timed out"}`)

	slog.Info("starting movedblocksd", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
