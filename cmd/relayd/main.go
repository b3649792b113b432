package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/absmartly/extension-bridge/internal/config"
	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/relayhost"
)

func main() {
	host := flag.String("host", "", "Bind host (overrides RELAY_HOST)")
	port := flag.String("port", "", "Bind port (overrides RELAY_PORT)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *host != "" {
		cfg.RelayHost.Host = *host
	}
	if *port != "" {
		cfg.RelayHost.Port = *port
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	srv := relayhost.New(cfg.RelayHost, logger, metrics)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("shutting down gracefully")
		if err := srv.Close(); err != nil {
			logger.Sugar().Errorf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Relay host error: %v", err)
	}
}
