// Command trackliftd runs the tracklift daemon in the foreground. It is a
// thin wrapper over the same runtime loop the CLI's daemon run command
// uses.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"tracklift/internal/config"
	"tracklift/internal/daemonrun"
)

func main() {
	configPath := os.Getenv("TRACKLIFT_CONFIG")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
