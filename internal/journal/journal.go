package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// Journal persists machine events to Postgres. Recording is best-effort:
// a failed insert is logged and dropped, it never blocks or fails the
// machine sequence that produced the event.
type Journal struct {
	client *PostgresClient
	logger *zap.Logger
}

func New(client *PostgresClient, logger *zap.Logger) *Journal {
	return &Journal{
		client: client,
		logger: logger,
	}
}

// EnsureSchema creates the machine_events table if it does not exist.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.client.Pool().Exec(ctx, `
		CREATE TABLE IF NOT EXISTS machine_events (
			id UUID PRIMARY KEY,
			kind TEXT NOT NULL,
			state TEXT NOT NULL,
			coffee_type TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create machine_events table: %w", err)
	}
	return nil
}

// Record inserts one event. Errors are logged, not returned.
func (j *Journal) Record(kind, state, coffeeType, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	_, err := j.client.Pool().Exec(ctx, `
		INSERT INTO machine_events (id, kind, state, coffee_type, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), kind, state, coffeeType, message, time.Now())
	if err != nil {
		j.logger.Warn("Failed to record machine event",
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// Recent returns the newest events, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.client.Pool().Query(ctx, `
		SELECT id, kind, state, coffee_type, message, created_at
		FROM machine_events
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query machine events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Kind, &e.State, &e.CoffeeType, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan machine event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read machine events: %w", err)
	}

	return events, nil
}

// Close releases the underlying connection pool.
func (j *Journal) Close() {
	j.client.Close()
}
