package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/config"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/database"
	httpHandlers "github.com/ANIKETSHETTY47/motor-condition-monitor/internal/http"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/service"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/simulator"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/telemetry"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := telemetry.NewHub()
	defer hub.Close()

	cfg := config.Simulator()
	cfg.Publisher = hub
	sim := simulator.New(cfg)

	deps := httpHandlers.Deps{
		Sim:         sim,
		Hub:         hub,
		Maintenance: service.NewMaintenanceService(time.Now()),
	}

	if config.UseDatabase() {
		db, err := database.Connect()
		if err != nil {
			log.Fatal().Err(err).Msg("db connect failed")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
		deps.History = repository.New(db)
	}

	if config.MQTTEnabled() {
		client, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID())
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer client.Disconnect(250)

		events, cancel := hub.Subscribe(64)
		defer cancel()
		go broker.NewPublisher(client, config.MQTTTopic()).Forward(ctx, events)
	}

	go sim.Run(ctx)

	app := fiber.New()
	httpHandlers.Register(app, deps)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Str("motor", sim.MotorID()).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("server exit")
	}
}
