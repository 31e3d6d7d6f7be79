package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/analytics"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/service"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/simulator"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/telemetry"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	keepAliveInterval   = 15 * time.Second
)

var (
	ErrHistoryDisabled = errors.New("history requires USE_DATABASE=true")
	ErrStreamDisabled  = errors.New("stream has no telemetry hub")
)

type HistoryStore interface {
	ListSnapshots(ctx context.Context, motorID string, limit int) ([]domain.SnapshotRecord, error)
}

type Deps struct {
	Sim         *simulator.Simulator
	Hub         *telemetry.Hub
	Maintenance *service.MaintenanceService
	// History is nil when the database is disabled.
	History HistoryStore
}

// Register mounts the motor API on app.
func Register(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	g := app.Group("/motor", provide(deps.Sim))
	g.Get("/", snapshotView(func(s domain.Snapshot) any { return s }))
	g.Get("/data", snapshotView(func(s domain.Snapshot) any { return s.MotorData }))
	g.Get("/sensors", snapshotView(func(s domain.Snapshot) any { return s.SensorData }))
	g.Get("/faults", snapshotView(func(s domain.Snapshot) any { return s.FaultData }))
	g.Get("/recommendations", snapshotView(func(s domain.Snapshot) any { return s.Recommendations }))
	g.Get("/status", snapshotView(func(s domain.Snapshot) any { return fiber.Map{"status": s.MotorStatus} }))
	g.Put("/status", setStatus)

	g.Post("/start", control(func(s *simulator.Simulator) error { return s.Start() }))
	g.Post("/stop", control(func(s *simulator.Simulator) error { return s.Stop() }))
	g.Post("/emergency-stop", control(func(s *simulator.Simulator) error { s.EmergencyStop(); return nil }))
	g.Post("/reset", control(func(s *simulator.Simulator) error { return s.Reset() }))

	g.Get("/sensors/summary", snapshotView(func(s domain.Snapshot) any { return analytics.Summarize(s.SensorData) }))
	g.Get("/forecast", func(c *fiber.Ctx) error {
		sim, err := simulator.FromContext(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(deps.Maintenance.Predict(sim.Snapshot()))
	})
	g.Get("/history", history(deps.History))
	g.Get("/stream", stream(deps.Hub))
}

// provide installs sim in the request context so handlers resolve it
// through simulator.FromContext.
func provide(sim *simulator.Simulator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sim != nil {
			c.SetUserContext(simulator.NewContext(c.UserContext(), sim))
		}
		return c.Next()
	}
}

func snapshotView(view func(domain.Snapshot) any) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sim, err := simulator.FromContext(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(sim.Snapshot()))
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func setStatus(c *fiber.Ctx) error {
	sim, err := simulator.FromContext(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	status, ok := domain.ParseMotorStatus(req.Status)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("unknown status %q", req.Status)})
	}
	sim.SetMotorStatus(status)
	return c.JSON(fiber.Map{"status": sim.Status()})
}

func control(action func(*simulator.Simulator) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sim, err := simulator.FromContext(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		if err := action(sim); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"status": sim.Status()})
	}
}

func history(store HistoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil {
			return fail(c, ErrHistoryDisabled)
		}
		sim, err := simulator.FromContext(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		limit := c.QueryInt("limit", defaultHistoryLimit)
		if limit <= 0 || limit > maxHistoryLimit {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)})
		}
		items, err := store.ListSnapshots(c.UserContext(), sim.MotorID(), limit)
		if err != nil {
			return fail(c, err)
		}
		if items == nil {
			items = []domain.SnapshotRecord{}
		}
		return c.JSON(items)
	}
}

// stream sends the current snapshot followed by one SSE event per hub
// publication until the client goes away or the hub closes.
func stream(hub *telemetry.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hub == nil {
			return fail(c, ErrStreamDisabled)
		}
		sim, err := simulator.FromContext(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		events, cancel := hub.Subscribe(telemetry.DefaultBuffer)
		initial := sim.Snapshot()

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()
			if err := writeEvent(w, initial); err != nil {
				return
			}
			keepAlive := time.NewTicker(keepAliveInterval)
			defer keepAlive.Stop()
			for {
				select {
				case snap, ok := <-events:
					if !ok {
						return
					}
					if err := writeEvent(w, snap); err != nil {
						log.Debug().Err(err).Msg("stream client gone")
						return
					}
				case <-keepAlive.C:
					if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

func writeEvent(w *bufio.Writer, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Sequence, data); err != nil {
		return err
	}
	return w.Flush()
}

func fail(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, simulator.ErrMotorFaulted), errors.Is(err, simulator.ErrNotFaulted):
		code = fiber.StatusConflict
	case errors.Is(err, ErrHistoryDisabled), errors.Is(err, ErrStreamDisabled), errors.Is(err, simulator.ErrNoProvider):
		code = fiber.StatusServiceUnavailable
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
