package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"imagedupes/logging"
)

// WithCancel returns a context cancelled on SIGINT or SIGTERM. A second
// signal exits immediately for users who do not want to wait for the
// current image to finish.
func WithCancel(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logging.LogWarning("Interrupt received, finishing current images and stopping")
		cancel()
		<-sigChan
		os.Exit(1)
	}()

	return ctx
}
