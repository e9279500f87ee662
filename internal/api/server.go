package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/agidash/agidash/internal/index"
	"github.com/agidash/agidash/internal/pipeline"
	"github.com/agidash/agidash/internal/repo"
	"github.com/agidash/agidash/pkg/errors"
	"github.com/agidash/agidash/pkg/logger"
)

// warnLevel is the display-only probability level below the alert
// level; the dashboard shows it as "warning".
const warnLevel = 0.3

// statusLookback bounds how far back a fired alert keeps the status
// at "alert".
const statusLookback = 7 * 24 * time.Hour

func NewServer(cfg Config, log logger.Logger, client repo.Client, bf backfiller) Server {
	serveLog := log.With("api_http_server")

	fiberCfg := fiber.Config{
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		DisableStartupMessage: true,
		RequestMethods:        []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodHead},
	}

	fiberCfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
		serveLog.Warn(errors.WrapFail(err, "handle http request"))
		return c.Status(http.StatusInternalServerError).Send(nil)
	}

	s := &server{
		repo: client,
		bf:   bf,
		http: fiber.New(fiberCfg),
		addr: cfg.HTTP.Addr,
		log:  serveLog,
	}

	s.setupRoutes()

	return s
}

type server struct {
	repo repo.Client
	bf   backfiller
	http *fiber.App
	addr string
	log  logger.Logger
}

func (s *server) Serve(ctx context.Context) error {
	errCh := make(chan error)
	go func() { errCh <- s.http.Listen(s.addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return errors.Error("serve context done")
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	err := s.http.ShutdownWithContext(ctx)
	return errors.WrapFail(err, "shutdown http server")
}

func (s *server) setupRoutes() {
	s.http.Get("/status", s.handleStatus)
	s.http.Get("/indices", s.handleIndices)
	s.http.Get("/alerts", s.handleAlerts)
	s.http.Post("/backfill", s.handleBackfill)
}

func (s *server) handleStatus(c *fiber.Ctx) error {
	alerts, err := s.repo.Alerts().Recent(c.Context(), statusDays())
	if err != nil {
		return errors.WrapFail(err, "load recent alerts")
	}

	status := "normal"
	date := ""

	if len(alerts) > 0 {
		date = alerts[0].Date

		switch {
		case anyFired(alerts):
			status = "alert"
		case alerts[0].MaxProb() >= warnLevel:
			status = "warning"
		}
	}

	return c.Status(http.StatusOK).JSON(map[string]string{
		"status": status,
		"date":   date,
	})
}

func (s *server) handleIndices(c *fiber.Ctx) error {
	points, err := s.repo.Indices().Window(c.Context(), s.getDays(c))
	if err != nil {
		return errors.WrapFail(err, "load index window")
	}

	if points == nil {
		points = []repo.IndexPoint{}
	}

	return c.Status(http.StatusOK).JSON(points)
}

func (s *server) handleAlerts(c *fiber.Ctx) error {
	alerts, err := s.repo.Alerts().Recent(c.Context(), s.getDays(c))
	if err != nil {
		return errors.WrapFail(err, "load recent alerts")
	}

	if alerts == nil {
		alerts = []repo.Alert{}
	}

	return c.Status(http.StatusOK).JSON(alerts)
}

func (s *server) handleBackfill(c *fiber.Ctx) error {
	err := s.bf.Backfill(c.Context())

	switch {
	case errors.Is(err, pipeline.ErrBackfillRunning):
		return s.sendError(c, http.StatusConflict, "backfill already running")
	case err != nil:
		return errors.WrapFail(err, "run backfill")
	}

	return c.Status(http.StatusOK).JSON(map[string]string{"status": "ok"})
}

func (s *server) sendError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(map[string]string{"status": "ERROR", "message": msg})
}

// getDays clamps the "days" query parameter to the index window.
func (s *server) getDays(c *fiber.Ctx) int {
	days := c.QueryInt("days", index.Window)
	if days < 1 || days > index.Window {
		days = index.Window
	}
	return days
}

// anyFired reports whether an alert fired within the lookback.
func anyFired(alerts []repo.Alert) bool {
	cutoff := time.Now().UTC().Add(-statusLookback).Format(repo.DateLayout)

	for _, a := range alerts {
		if a.Alert && a.Date >= cutoff {
			return true
		}
	}
	return false
}

func statusDays() int {
	return int(statusLookback / (24 * time.Hour))
}
