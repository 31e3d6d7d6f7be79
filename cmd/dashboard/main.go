package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/config"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/dashboard"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := dashboard.New()
	go srv.Run(ctx)

	client, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID())
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer client.Disconnect(250)

	if err := broker.Subscribe(client, config.MQTTTopic(), srv.Update); err != nil {
		log.Fatal().Err(err).Msg("subscribe failed")
	}

	httpServer := &http.Server{
		Addr:              config.DashboardAddr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", httpServer.Addr).Msg("dashboard listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exit")
	}
}
