// internal/database/room_events.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// UpsertRoom marks a room as active. Rooms reuse their four-letter
// codes over time, so (code, opened_at) rows accumulate; upserting on
// code keeps the latest session's status current.
func UpsertRoom(ctx context.Context, tx pgx.Tx, code string) error {
	q := `
		INSERT INTO rooms (code, status, opened_at)
		VALUES ($1, 'active', NOW())
		ON CONFLICT (code)
		DO UPDATE SET status = 'active'
	`
	_, err := tx.Exec(ctx, q, code)
	return err
}

// InsertRoomEvent appends one relayed event to the room's history.
func InsertRoomEvent(ctx context.Context, tx pgx.Tx, code string, eventIndex int, playerID uint32, eventType string, payload []byte) error {
	q := `
		INSERT INTO room_events (
			room_code, event_index, player_id, event_type, payload
		) VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, q, code, eventIndex, playerID, eventType, payload)
	return err
}

// CloseRoom marks a room closed if it is still active.
func CloseRoom(ctx context.Context, tx pgx.Tx, code string) error {
	q := `
		UPDATE rooms
		SET status = 'closed', closed_at = NOW()
		WHERE code = $1 AND status = 'active'
	`
	_, err := tx.Exec(ctx, q, code)
	return err
}

// MarkRoomAbandoned marks a room abandoned after prolonged inactivity.
func MarkRoomAbandoned(ctx context.Context, code string) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE rooms
			SET status = 'abandoned', closed_at = NOW()
			WHERE code = $1 AND status = 'active'
		`
		_, err := tx.Exec(ctx, q, code)
		return err
	})
}
