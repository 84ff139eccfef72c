package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/slipwayci/slipway/internal/server"
)

// Grace period for in-flight requests during shutdown.
const shutdownTimeout = 10 * time.Second

// Represents the 'slipway serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Address the trigger daemon listens on." default:":8315"`
}

// Executes the serve command.
//
// Starts the HTTP trigger daemon and blocks until the context is cancelled
// (e.g. via SIGINT or SIGTERM).
func (c *ServeCmd) Run(ctx context.Context) error {
	p, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(c.Addr, p)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(stopCtx)
}
