package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"bennypowers.dev/csslift/internal/command"
	"bennypowers.dev/csslift/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args, os.Stdout); err != nil {
		// failed definitions were already logged one by one
		if !errors.Is(err, command.ErrDefinitionsFailed) {
			log.Error("%v", err)
		}
		log.Sync()
		stop()
		os.Exit(1)
	}
}
