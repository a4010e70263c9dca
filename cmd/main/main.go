package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"image-recon/internal/config"
)

// Коды выхода.
const (
	exitOK       = 0
	exitStartup  = 1 // нет учётных данных / битая конфигурация
	exitFatalRun = 2 // необработанная ошибка во время прогона
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrMissingCredential), errors.Is(err, config.ErrInvalid):
		return exitStartup
	default:
		return exitFatalRun
	}
}
