package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/slipwayci/slipway/internal"
	"github.com/slipwayci/slipway/internal/pipeline"
)

// Body of a tag push trigger, the relevant subset of a forge webhook
// payload.
type tagPushRequest struct {
	Ref     string `json:"ref"`
	Context string `json:"context,omitempty"`
}

// Body of a manual dispatch.
type dispatchRequest struct {
	Context string `json:"context,omitempty"`
}

func (s *Server) handleTagPush(c *fiber.Ctx) error {
	var req tagPushRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ref is required",
		})
	}

	trigger := pipeline.Trigger{
		Kind:    pipeline.TriggerTagPush,
		Ref:     req.Ref,
		Context: req.Context,
	}

	// Pushes for anything but a tag ref are acknowledged and dropped;
	// forges deliver branch pushes on the same hook.
	if !trigger.IsTagRef() {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"state":  s.runner.State(),
			"reason": "ref is not a version tag",
		})
	}

	return s.start(c, trigger)
}

func (s *Server) handleDispatch(c *fiber.Ctx) error {
	var req dispatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	return s.start(c, pipeline.Trigger{
		Kind:    pipeline.TriggerManual,
		Context: req.Context,
	})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := fiber.Map{
		"state":   s.runner.State(),
		"version": internal.VersionString(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"runs":    s.runs.Load(),
	}
	if release := s.runner.LastRelease(); release != nil {
		resp["last_release"] = release
	}
	return c.JSON(resp)
}

// Starts a release in the background and acknowledges the trigger.
//
// The run slot is reserved synchronously so a 202 means the release is
// actually running; only the already-admitted run detaches. Webhook
// deliveries time out long before a build finishes, so the response
// confirms admission and progress is observable via the status endpoint
// and the logs.
func (s *Server) start(c *fiber.Ctx, trigger pipeline.Trigger) error {
	if err := s.runner.Begin(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.runs.Add(1)
	go func() {
		// Detached from the request; the release outlives the webhook.
		if _, err := s.runner.Execute(context.Background(), trigger); err != nil {
			slog.Error("release failed", "kind", trigger.Kind, "ref", trigger.Ref, "error", err)
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"state": pipeline.StateTriggered,
	})
}
