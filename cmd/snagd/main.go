// Command snagd runs the snag download daemon in the foreground.
package main

import (
	"context"
	"flag"
	"log"

	"snag/internal/config"
	"snag/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	logLevel := flag.String("log-level", "", "override configured log level")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel}); err != nil {
		log.Fatalf("snagd: %v", err)
	}
}
