package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunListener holds a dedicated connection subscribed to the run_events
// channel. Notifications are delivered by the insert trigger on runs.
type RunListener struct {
	conn *pgxpool.Conn
}

// ListenRunEvents acquires a dedicated connection and subscribes it to run
// insert notifications. Close the listener to release the connection.
func (db *DB) ListenRunEvents(ctx context.Context) (*RunListener, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+runEventsChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", runEventsChannel, err)
	}

	return &RunListener{conn: conn}, nil
}

// Next blocks until a notification arrives and returns its payload. Returns
// the context error when ctx is canceled.
func (l *RunListener) Next(ctx context.Context) (string, error) {
	notification, err := l.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		return "", fmt.Errorf("failed waiting for notification: %w", err)
	}
	return notification.Payload, nil
}

// Close releases the listener connection back to the pool.
func (l *RunListener) Close() {
	if l.conn != nil {
		l.conn.Release()
		l.conn = nil
	}
}
