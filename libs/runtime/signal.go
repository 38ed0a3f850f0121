package runtime

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled on the first SIGINT or SIGTERM so every loop hung
// off it can drain. A second signal exits at once. The returned stop releases
// the signal handler.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			logger.Info("shutdown signal received, draining", "signal", sig.String())
			cancel()
		case <-done:
			return
		}
		select {
		case sig := <-sigs:
			logger.Warn("second shutdown signal, exiting", "signal", sig.String())
			os.Exit(1)
		case <-done:
		}
	}()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		signal.Stop(sigs)
		close(done)
		cancel()
	}
	return ctx, stop
}
