package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"toolgate/internal/config"
)

var (
	debugMode  = flag.Bool("d", false, "Enable debug mode")
	logFile    = flag.String("log-file", "", "Log file path (logs disabled by default)")
	configFile = flag.String("config", "config.json", "Configuration file path")
)

func main() {
	flag.Parse()

	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *debugMode {
		cfg.Debug = true
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger := initLogger(cfg.Debug, cfg.LogFile)
	logger.Info().Msg("Toolgate starting")

	for _, warning := range cfg.Validate() {
		logger.Warn().Str("field", warning.Field).Msg(warning.Message)
	}

	// Batch mode: run one batch request from a JSON file and exit
	args := flag.Args()
	if len(args) > 0 && args[0] != "-" {
		runBatchFile(args[0], cfg, logger)
		return
	}

	runConsole(cfg, logger)
}

func initLogger(debug bool, logFilePath string) zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var output io.Writer
	if logFilePath != "" {
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		output = file
	} else {
		output = io.Discard
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
