package repository

import (
	"context"
	"fmt"
	"regexp"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	pkgch "DiabScreen/pkg/clickhouse"
	applogger "DiabScreen/pkg/logger"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHEventStore persists screening events in ClickHouse.
type CHEventStore struct {
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

var _ domrepo.EventStore = (*CHEventStore)(nil)

// NewCHEventStore stores events in database.table. Both names must be plain identifiers.
func NewCHEventStore(ch *pkgch.Client, table string, l *applogger.Logger) (*CHEventStore, error) {
	if !identifier.MatchString(ch.Database()) || !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table %q.%q", ch.Database(), table)
	}
	return &CHEventStore{
		ch:    ch,
		table: ch.Database() + "." + table,
		l:     l.Named("clickhouse"),
	}, nil
}

func (s *CHEventStore) Name() string { return "clickhouse" }

// schema returns the idempotent DDL for the events table.
func (s *CHEventStore) schema() []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.ch.Database()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id              String,
            ts              DateTime64(3, 'UTC'),
            age             Float64,
            gender          LowCardinality(String),
            smoking_history LowCardinality(String),
            bmi             Float64,
            hypertension    UInt8,
            heart_disease   UInt8,
            probability     Float64,
            label           LowCardinality(String),
            threshold       Float64,
            model_version   LowCardinality(String),
            latency_ms      Float64
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (ts, id)`, s.table),
	}
}

func (s *CHEventStore) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, s.schema()); err != nil {
		return err
	}
	s.l.Info("clickhouse schema ready", applogger.String("table", s.table))
	return nil
}

func (s *CHEventStore) Send(ctx context.Context, ev *models.ScreeningEvent) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, ts, age, gender, smoking_history, bmi, hypertension, heart_disease,
        probability, label, threshold, model_version, latency_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.ch.DB().ExecContext(ctx, q,
		ev.ID,
		ev.Timestamp,
		ev.Age,
		ev.Gender,
		ev.SmokingHistory,
		ev.BMI,
		uint8(ev.Hypertension),
		uint8(ev.HeartDisease),
		ev.Probability,
		ev.Label,
		ev.Threshold,
		ev.ModelVersion,
		ev.LatencyMs,
	)
	if err != nil {
		s.l.Debug("clickhouse insert error", applogger.String("id", ev.ID), applogger.Error(err))
		return fmt.Errorf("insert screening event: %w", err)
	}
	return nil
}

func (s *CHEventStore) Close() error {
	return s.ch.Close()
}
