package runtime

import (
	"io"
	"log/slog"
	"syscall"
	"testing"
	"time"
)

func TestSignalContextCancelsOnSIGTERM(t *testing.T) {
	ctx, stop := SignalContext(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected SIGTERM to cancel the context")
	}
}

func TestSignalContextStop(t *testing.T) {
	ctx, stop := SignalContext(slog.New(slog.NewTextHandler(io.Discard, nil)))
	stop()
	stop()
	if ctx.Err() == nil {
		t.Fatal("expected stop to cancel the context")
	}
}
