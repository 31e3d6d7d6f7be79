package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/broker"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/repository"
)

type Services struct {
	Repos     *repository.Repos
	Snapshots *SnapshotService
}

// New wires the ingest pipeline on top of Postgres. mirror and alerter may
// be nil when cloud services are disabled.
func New(db *sqlx.DB, mirror Mirror, alerter Alerter) *Services {
	repos := repository.New(db)
	return &Services{
		Repos:     repos,
		Snapshots: NewSnapshotService(repos, mirror, alerter),
	}
}

type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap domain.Snapshot) (int64, error)
}

type Mirror interface {
	PutSnapshot(ctx context.Context, snap domain.Snapshot) error
}

type Alerter interface {
	Alert(ctx context.Context, snap domain.Snapshot) error
}

type SnapshotService struct {
	store   SnapshotStore
	mirror  Mirror
	alerter Alerter

	mu   sync.Mutex
	last map[string]domain.Snapshot
}

func NewSnapshotService(store SnapshotStore, mirror Mirror, alerter Alerter) *SnapshotService {
	return &SnapshotService{
		store:   store,
		mirror:  mirror,
		alerter: alerter,
		last:    make(map[string]domain.Snapshot),
	}
}

// FromMQTT decodes and ingests one message payload.
func (s *SnapshotService) FromMQTT(topic string, payload []byte) error {
	snap, err := broker.Decode(payload)
	if err != nil {
		return fmt.Errorf("topic %s: %w", topic, err)
	}
	return s.Ingest(context.Background(), snap)
}

// Ingest persists a snapshot, mirrors it to the cloud if configured, and
// raises an alert when the motor has just become critical or faulted.
func (s *SnapshotService) Ingest(ctx context.Context, snap domain.Snapshot) error {
	id, err := s.store.InsertSnapshot(ctx, snap)
	if err != nil {
		return fmt.Errorf("store snapshot %d: %w", snap.Sequence, err)
	}
	log.Debug().Str("motor", snap.MotorID).Int64("id", id).Uint64("sequence", snap.Sequence).Msg("snapshot stored")

	if s.mirror != nil {
		if err := s.mirror.PutSnapshot(ctx, snap); err != nil {
			log.Error().Err(err).Str("motor", snap.MotorID).Msg("cloud mirror failed")
		}
	}

	s.mu.Lock()
	prev, seen := s.last[snap.MotorID]
	s.last[snap.MotorID] = snap
	s.mu.Unlock()

	if s.alerter == nil || !Escalated(prev, snap, seen) {
		return nil
	}
	if err := s.alerter.Alert(ctx, snap); err != nil {
		return fmt.Errorf("alert motor %s: %w", snap.MotorID, err)
	}
	log.Warn().Str("motor", snap.MotorID).Str("fault_status", string(snap.FaultData.Status)).
		Str("motor_status", string(snap.MotorStatus)).Msg("alert raised")
	return nil
}

// Escalated reports whether cur entered the critical fault band or the
// fault motor status since prev. With no previous snapshot, any critical
// or faulted snapshot counts.
func Escalated(prev, cur domain.Snapshot, seen bool) bool {
	critical := cur.FaultData.Status == domain.FaultCritical
	faulted := cur.MotorStatus == domain.MotorFault
	if !seen {
		return critical || faulted
	}
	return (critical && prev.FaultData.Status != domain.FaultCritical) ||
		(faulted && prev.MotorStatus != domain.MotorFault)
}
