package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

var BuildVersion = "dev"

func main() {
	conf := flag.String("config", "", "path or http(s) url to a json config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(BuildVersion)
		os.Exit(0)
	}

	configPath := *conf
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	defs := allToolDefinitions()
	if overridesPath := config.Options.ToolOverrides; overridesPath != "" {
		overrides, err := loadToolOverridesFromPath(overridesPath)
		if err != nil {
			log.Fatalf("Failed to load tool overrides: %v", err)
		}
		defs = applyToolOverrides(defs, overrides)
	}
	if err := validateToolDefinitions(defs); err != nil {
		log.Fatalf("Invalid tool table: %v", err)
	}

	if err := startHTTPServer(config, defs); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
