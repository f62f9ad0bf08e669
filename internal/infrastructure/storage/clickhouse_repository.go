package storage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/repository"
)

// ClickHouseRepository implements both EventPersistence and StatsPersistence
// using ClickHouse as the backend. It keeps the append-only audit log of raw
// lifecycle events (the replay source after a restart) and a history of
// protocol-stat snapshots for reporting.
type ClickHouseRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseRepository(cfg ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	// Check the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

// Ensure ClickHouseRepository implements both required interfaces
var _ repository.EventPersistence = (*ClickHouseRepository)(nil)
var _ repository.StatsPersistence = (*ClickHouseRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	// Raw lifecycle event log, ordered the way the chain delivered it
	err := conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS payment_events (
			event_id String,
			kind String,
			order_id String,
			payload String,
			block_timestamp DateTime,
			processed_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (block_timestamp, event_id)
	`)
	if err != nil {
		return err
	}

	// Protocol stat snapshot history
	err = conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS protocol_snapshots (
			id String,
			total_volume_all_time UInt256,
			total_fees_all_time UInt256,
			average_payment_amount UInt256,
			total_payments_all_time UInt64,
			total_completed_payments UInt64,
			total_cancelled_payments UInt64,
			total_unique_users UInt64,
			last_updated DateTime,
			snapshot_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree()
		ORDER BY (id, snapshot_at)
	`)

	return err
}

// EventPersistence interface implementation

// SaveEvent appends a raw lifecycle event to the audit log
func (r *ClickHouseRepository) SaveEvent(ctx context.Context, eventID, kind, orderID string, payload []byte, blockTimestamp int64) error {
	query := `
		INSERT INTO payment_events (
			event_id, kind, order_id, payload, block_timestamp
		) VALUES (
			?, ?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		eventID,
		kind,
		orderID,
		string(payload),
		time.Unix(blockTimestamp, 0).UTC(),
	)
}

// GetEventsSince retrieves raw event payloads at or after the given timestamp
func (r *ClickHouseRepository) GetEventsSince(ctx context.Context, since int64) ([][]byte, error) {
	query := `
		SELECT payload
		FROM payment_events
		WHERE block_timestamp >= fromUnixTimestamp(?)
		ORDER BY block_timestamp, event_id
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results [][]byte
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		results = append(results, []byte(payload))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// StatsPersistence interface implementation

// SaveProtocolSnapshot appends a protocol stat snapshot
func (r *ClickHouseRepository) SaveProtocolSnapshot(ctx context.Context, s *model.ProtocolStat) error {
	query := `
		INSERT INTO protocol_snapshots (
			id, total_volume_all_time, total_fees_all_time, average_payment_amount,
			total_payments_all_time, total_completed_payments, total_cancelled_payments,
			total_unique_users, last_updated
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		s.ID,
		s.TotalVolumeAllTime,
		s.TotalFeesAllTime,
		s.AveragePaymentAmount,
		s.TotalPaymentsAllTime,
		s.TotalCompletedPayments,
		s.TotalCancelledPayments,
		s.TotalUniqueUsers,
		time.Unix(s.LastUpdated, 0).UTC(),
	)
}

// GetLatestProtocolSnapshot retrieves the most recent protocol snapshot
func (r *ClickHouseRepository) GetLatestProtocolSnapshot(ctx context.Context) (*model.ProtocolStat, error) {
	query := `
		SELECT
			id, total_volume_all_time, total_fees_all_time, average_payment_amount,
			total_payments_all_time, total_completed_payments, total_cancelled_payments,
			total_unique_users, last_updated
		FROM protocol_snapshots
		WHERE id = ?
		ORDER BY snapshot_at DESC
		LIMIT 1
	`

	stats := model.NewProtocolStat()
	var lastUpdated time.Time
	volume, fees, avg := new(big.Int), new(big.Int), new(big.Int)

	row := r.conn.QueryRow(ctx, query, model.ProtocolStatID)
	err := row.Scan(
		&stats.ID,
		volume,
		fees,
		avg,
		&stats.TotalPaymentsAllTime,
		&stats.TotalCompletedPayments,
		&stats.TotalCancelledPayments,
		&stats.TotalUniqueUsers,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}

	stats.TotalVolumeAllTime = volume
	stats.TotalFeesAllTime = fees
	stats.AveragePaymentAmount = avg
	stats.LastUpdated = lastUpdated.Unix()
	return stats, nil
}
