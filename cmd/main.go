package main

import (
	"os"

	"github.com/hvacbridge/estimator/cmd/commands"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if err := commands.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
