package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

// InsertSnapshot stores the snapshot row and its fault rows in one
// transaction and returns the new snapshot id.
func (r *Repos) InsertSnapshot(ctx context.Context, snap domain.Snapshot) (int64, error) {
	rec, faults := snap.Record()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowxContext(ctx, `INSERT INTO motor_snapshots(motor_id, sequence, recorded_at, motor_status, fault_status, load, speed, temperature, efficiency)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`,
		rec.MotorID, rec.Sequence, rec.RecordedAt, rec.MotorStatus, rec.FaultStatus,
		rec.Load, rec.Speed, rec.Temperature, rec.Efficiency).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	for _, f := range faults {
		f.SnapshotID = id
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO fault_readings(snapshot_id, fault_type, probability)
			VALUES (:snapshot_id, :fault_type, :probability)`, f); err != nil {
			return 0, fmt.Errorf("insert fault %s: %w", f.FaultType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ListSnapshots returns the newest snapshots for a motor, newest first.
func (r *Repos) ListSnapshots(ctx context.Context, motorID string, limit int) ([]domain.SnapshotRecord, error) {
	var out []domain.SnapshotRecord
	err := r.db.SelectContext(ctx, &out, `SELECT id, motor_id, sequence, recorded_at, motor_status, fault_status, load, speed, temperature, efficiency
		FROM motor_snapshots WHERE motor_id = $1 ORDER BY recorded_at DESC, id DESC LIMIT $2`, motorID, limit)
	return out, err
}

// ListFaults returns the fault rows recorded with a snapshot.
func (r *Repos) ListFaults(ctx context.Context, snapshotID int64) ([]domain.FaultRecord, error) {
	var out []domain.FaultRecord
	err := r.db.SelectContext(ctx, &out, `SELECT snapshot_id, fault_type, probability FROM fault_readings WHERE snapshot_id = $1 ORDER BY fault_type`, snapshotID)
	return out, err
}
