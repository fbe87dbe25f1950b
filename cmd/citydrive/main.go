package main

import (
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"

	"github.com/lallassu/citydrive/internal/config"
	"github.com/lallassu/citydrive/internal/game"
	"github.com/lallassu/citydrive/internal/logging"
	"github.com/lallassu/citydrive/internal/telemetry"
)

func main() {
	configDir := pflag.StringP("config", "c", ".", "directory containing citydrive.json")
	pflag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log := logging.Setup(os.Stderr, nil, "info")
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			log := logging.Setup(os.Stderr, nil, cfg.LogLevel)
			log.Fatal().Err(err).Str("path", cfg.LogFile).Msg("Failed to open log file")
		}
		defer f.Close()
		logFile = f
	}
	log := logging.Setup(os.Stdout, logFile, cfg.LogLevel)

	metrics, err := telemetry.New(otel.Meter(telemetry.ScopeName))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create metrics")
	}

	if err := game.RunDesktop(cfg, log, metrics); err != nil {
		log.Fatal().Err(err).Msg("Game exited with error")
	}
}
