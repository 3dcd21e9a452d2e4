package main

import (
	"os"

	log "jailcfg/logger"
	"jailcfg/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
