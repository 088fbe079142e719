package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/wildwatch/internal/ctl"
	"github.com/okian/wildwatch/pkg/logger"
)

func main() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctl.RootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("wildwatchctl: " + err.Error() + "\n")
		os.Exit(1)
	}
}
