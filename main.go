package main

import (
	"fmt"
	"os"
	"strings"

	"socialfeed/app/config"
	"socialfeed/app/logging"
	"socialfeed/service"

	"github.com/sirupsen/logrus"
)

const cliVersion = "1.0.0"

// exit is swapped out in tests.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command line.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("socialfeed version %s\n", cliVersion)
	case "serve":
		cfg, logger := setup()
		if err := service.Serve(cfg, logger); err != nil {
			logger.WithError(err).Error("server stopped")
			exit(1)
			return
		}
	case "db":
		cfg, _ := setup()
		exit(service.HandleCommand(cfg, os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

// setup loads .env and the environment, then builds the logger.
func setup() (*config.Config, *logrus.Logger) {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		exit(1)
		return nil, nil
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Printf("Invalid log level: %v\n", err)
		exit(1)
		return nil, nil
	}
	return cfg, logger
}

func printHelp() {
	helpText := `Usage: socialfeed <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Run the JSON API server.
  db <command> [--yes]           Manage the badger database (init, clean, backup, restore <file>).

Configuration is read from the environment and an optional .env file:
  APP_ENV, LOG_LEVEL, PORT, STORAGE_BACKEND, DB_PATH, BACKUP_DIR, UPLOAD_DIR,
  MAX_UPLOAD_BYTES, SESSION_TTL, SESSION_PRUNE_INTERVAL, SESSION_COOKIE_NAME, COOKIE_SECURE
`
	fmt.Println(helpText)
}
