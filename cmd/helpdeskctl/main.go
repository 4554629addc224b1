package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fixit/helpdesk-service/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCommand(cfg, openApp).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
