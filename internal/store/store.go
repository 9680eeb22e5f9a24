package store

import (
	"context"
	"database/sql"
	"encoding/json"
	errs "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DaanHessen/spire-parity/internal/engine"
	"github.com/DaanHessen/spire-parity/internal/util"
)

var (
	ErrNoChange = errs.New("no change")
	ErrNotFound = errs.New("not found")
)

// DB wraps gorm.DB for repositories and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error   { return d.sql.Close() }
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Open connects to DB per config.
func Open(ctx context.Context, cfg util.Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("missing DSN")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, wrap(err, "open postgres")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(10)
	sdb.SetMaxIdleConns(5)
	if err := sdb.PingContext(ctx); err != nil {
		return nil, wrap(err, "ping postgres")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

// WithTx executes fn within a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.gorm.WithContext(ctx).Transaction(fn)
}

// Run is one persisted seeded run.
type Run struct {
	ID           uuid.UUID
	Seed         int64
	SeedText     string
	RulesVersion string
	CreatedAt    time.Time
}

// RunRepo basic operations.
type RunRepo struct{ db *DB }

func NewRunRepo(db *DB) *RunRepo { return &RunRepo{db: db} }

func (r *RunRepo) Create(ctx context.Context, seed engine.RunSeed, rulesVersion string) (Run, error) {
	id := uuid.New()
	now := time.Now().UTC()
	err := r.db.gorm.WithContext(ctx).Exec(
		`INSERT INTO runs(id, seed, seed_text, rules_version, created_at) VALUES (?,?,?,?,?)`,
		id, seed.Value, seed.Text, rulesVersion, now,
	).Error
	if err != nil {
		return Run{}, wrap(err, "insert run")
	}
	return Run{ID: id, Seed: seed.Value, SeedText: seed.Text, RulesVersion: rulesVersion, CreatedAt: now}, nil
}

func (r *RunRepo) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	row := r.db.gorm.WithContext(ctx).Raw(`SELECT id, seed, seed_text, rules_version, created_at FROM runs WHERE id = ?`, id).Row()
	var rr Run
	if err := row.Scan(&rr.ID, &rr.Seed, &rr.SeedText, &rr.RulesVersion, &rr.CreatedAt); err != nil {
		if errs.Is(err, sql.ErrNoRows) {
			return Run{}, errors.Wrapf(ErrNotFound, "run %s", id)
		}
		return Run{}, wrap(err, "select run")
	}
	return rr, nil
}

// Checkpoint is a save point: the run's position plus the counters of its run-scoped
// channels. Floor and act channels are rebuilt from the position on resume.
type Checkpoint struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Position  engine.Position
	Counters  engine.SaveCounters
	CreatedAt time.Time
}

type CheckpointRepo struct{ db *DB }

func NewCheckpointRepo(db *DB) *CheckpointRepo { return &CheckpointRepo{db: db} }

// Insert records the current counters of streams inside tx.
func (cr *CheckpointRepo) Insert(ctx context.Context, tx *gorm.DB, runID uuid.UUID, streams *engine.RunStreams) (Checkpoint, error) {
	cp := Checkpoint{
		ID:        uuid.New(),
		RunID:     runID,
		Position:  streams.Position(),
		Counters:  streams.Counters(),
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(cp.Counters)
	if err != nil {
		return Checkpoint{}, wrap(err, "encode counters")
	}
	err = tx.WithContext(ctx).Exec(
		`INSERT INTO checkpoints(id, run_id, floor, act, counters, created_at) VALUES (?,?,?,?,?::jsonb,?)`,
		cp.ID, runID, cp.Position.Floor, cp.Position.Act, string(raw), cp.CreatedAt,
	).Error
	if err != nil {
		return Checkpoint{}, wrap(err, "insert checkpoint")
	}
	return cp, nil
}

// Latest returns the newest checkpoint for runID.
func (cr *CheckpointRepo) Latest(ctx context.Context, runID uuid.UUID) (Checkpoint, error) {
	row := cr.db.gorm.WithContext(ctx).Raw(
		`SELECT id, run_id, floor, act, counters, created_at FROM checkpoints WHERE run_id = ? ORDER BY created_at DESC LIMIT 1`, runID,
	).Row()
	var (
		cp  Checkpoint
		raw []byte
	)
	if err := row.Scan(&cp.ID, &cp.RunID, &cp.Position.Floor, &cp.Position.Act, &raw, &cp.CreatedAt); err != nil {
		if errs.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, errors.Wrapf(ErrNotFound, "checkpoint for run %s", runID)
		}
		return Checkpoint{}, wrap(err, "select checkpoint")
	}
	if err := json.Unmarshal(raw, &cp.Counters); err != nil {
		return Checkpoint{}, wrap(err, "decode counters")
	}
	return cp, nil
}

// ResumeFromCheckpoint rebuilds the run's streams from a persisted checkpoint.
func ResumeFromCheckpoint(run Run, cp Checkpoint) (*engine.RunStreams, error) {
	if cp.RunID != run.ID {
		return nil, errors.Errorf("checkpoint %s belongs to run %s, not %s", cp.ID, cp.RunID, run.ID)
	}
	streams, err := engine.ResumeRunStreams(run.Seed, cp.Counters, cp.Position)
	return streams, wrap(err, "resume streams")
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
