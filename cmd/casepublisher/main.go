package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := rootCmd(cfg, logger).ExecuteContext(ctx); err != nil {
		if errors.Is(err, domain.ErrAborted) {
			fmt.Fprintln(os.Stderr, "Aborted, nothing was changed.")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
