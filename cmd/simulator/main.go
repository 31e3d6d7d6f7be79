package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/config"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
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

	client, err := broker.Connect(config.MQTTBroker(), config.MQTTClientID())
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer client.Disconnect(250)
	publisher := broker.NewPublisher(client, config.MQTTTopic())

	hub := telemetry.NewHub()
	defer hub.Close()
	events, cancel := hub.Subscribe(64)
	defer cancel()

	cfg := config.Simulator()
	cfg.Publisher = hub
	sim := simulator.New(cfg)
	if err := sim.Start(); err != nil {
		log.Fatal().Err(err).Msg("start motor")
	}

	startSeq := sim.Snapshot().Sequence

	go sim.Run(ctx)

	maxTicks := config.SimulatorMaxTicks()
	log.Info().Str("motor", sim.MotorID()).Str("topic", config.MQTTTopic()).
		Dur("interval", sim.TickInterval()).Int("max_ticks", maxTicks).Msg("simulation started")

	ticks := relay(ctx, events, publisher.PublishSnapshot, startSeq, maxTicks)
	log.Info().Int("ticks", ticks).Msg("simulation done")
}

// relay publishes every snapshot from events and counts the ticks that
// follow startSeq. It returns when ctx is done, events closes, maxTicks
// ticks were seen, or, with maxTicks > 0, the motor faults and the
// simulator stops ticking.
func relay(ctx context.Context, events <-chan domain.Snapshot, publish func(domain.Snapshot) error, startSeq uint64, maxTicks int) int {
	ticks := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("ticks", ticks).Msg("simulation interrupted")
			return ticks
		case snap, ok := <-events:
			if !ok {
				return ticks
			}
			if err := publish(snap); err != nil {
				log.Error().Err(err).Uint64("sequence", snap.Sequence).Msg("publish failed")
			}
			if snap.Sequence <= startSeq {
				continue
			}
			ticks++
			if snap.MotorStatus == domain.MotorFault {
				if maxTicks > 0 {
					log.Warn().Str("motor", snap.MotorID).Int("ticks", ticks).Msg("motor faulted; ending bounded run")
					return ticks
				}
				log.Warn().Str("motor", snap.MotorID).Msg("motor faulted; waiting for interrupt")
				continue
			}
			if maxTicks > 0 && ticks >= maxTicks {
				return ticks
			}
		}
	}
}
