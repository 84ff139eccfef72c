package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/slipwayci/slipway/internal/pipeline"
)

// ErrServer indicates a failure of the HTTP listener.
var ErrServer = errors.New("server error")

// Runner is the pipeline surface the daemon drives.
//
// Begin reserves the single run slot synchronously so the daemon can
// refuse a trigger before acknowledging it; Execute then runs the admitted
// release.
type Runner interface {
	Begin() error
	Execute(ctx context.Context, trigger pipeline.Trigger) (*pipeline.Release, error)
	State() pipeline.State
	LastRelease() *pipeline.Release
}

// Server is the HTTP trigger daemon.
type Server struct {
	app    *fiber.App
	runner Runner
	addr   string

	started time.Time
	runs    atomic.Uint64
}

// Creates a daemon serving the trigger API on addr.
func New(addr string, runner Runner) *Server {
	s := &Server{
		runner:  runner,
		addr:    addr,
		started: time.Now(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "slipway",
		DisableStartupMessage: true,
	})

	v1 := s.app.Group("/v1")
	v1.Post("/triggers/tag", s.handleTagPush)
	v1.Post("/triggers/dispatch", s.handleDispatch)
	v1.Get("/status", s.handleStatus)

	return s
}

// Serves until [Server.Stop] is called.
func (s *Server) Start() error {
	slog.Info("trigger daemon listening", "addr", s.addr)

	if err := s.app.Listen(s.addr); err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	return nil
}

// Shuts the listener down, waiting for in-flight requests until ctx
// expires. A release already running in the background is not interrupted.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
	return nil
}
