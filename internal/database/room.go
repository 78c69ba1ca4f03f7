package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/judgement/internal/models"
)

func (d *PostgresDirectory) RoomExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := d.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, code).Scan(&exists)
	return exists, err
}

func (d *PostgresDirectory) GetRoom(ctx context.Context, code string) (*models.Room, error) {
	var r models.Room
	err := d.DB.QueryRow(ctx, `SELECT id, status, game_name FROM rooms WHERE id = $1`, code).
		Scan(&r.ID, &r.Status, &r.GameName)
	if err != nil {
		return nil, notFound(err)
	}
	members, err := d.GetRoomMembers(ctx, code)
	if err != nil {
		return nil, err
	}
	r.Members = members
	return &r, nil
}

// GetRoomMembers returns members in the order they joined.
func (d *PostgresDirectory) GetRoomMembers(ctx context.Context, code string) ([]uuid.UUID, error) {
	exists, err := d.RoomExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	rows, err := d.DB.Query(ctx, `SELECT player_id FROM room_members WHERE room_id = $1 ORDER BY seat`, code)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (d *PostgresDirectory) AddMember(ctx context.Context, code string, playerID uuid.UUID) error {
	q := `
	INSERT INTO room_members (room_id, player_id)
	VALUES ($1, $2)
	ON CONFLICT (room_id, player_id) DO NOTHING
	`
	return pgx.BeginTxFunc(ctx, d.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, code).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		_, err := tx.Exec(ctx, q, code, playerID)
		return err
	})
}

func (d *PostgresDirectory) RemoveMember(ctx context.Context, code string, playerID uuid.UUID) error {
	tag, err := d.DB.Exec(ctx, `DELETE FROM room_members WHERE room_id = $1 AND player_id = $2`, code, playerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRoom inserts a room under a fresh code, regenerating on primary key collisions.
func (d *PostgresDirectory) CreateRoom(ctx context.Context) (string, error) {
	return createWithUniqueCode(func(code string) error {
		_, err := d.DB.Exec(ctx, `INSERT INTO rooms (id, status) VALUES ($1, $2)`, code, models.RoomLobby)
		if isUniqueViolation(err) {
			return ErrRoomCodeExists
		}
		return err
	})
}

func (d *PostgresDirectory) DeleteRoom(ctx context.Context, code string) error {
	return pgx.BeginTxFunc(ctx, d.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM room_members WHERE room_id = $1`, code); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, code)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (d *PostgresDirectory) SetRoomGame(ctx context.Context, code string, gameName string) error {
	return d.updateLobbyRoom(ctx, code, `UPDATE rooms SET game_name = $2 WHERE id = $1 AND status = 'LOBBY'`, gameName)
}

func (d *PostgresDirectory) SetRoomStatus(ctx context.Context, code string, status models.RoomStatus) error {
	if status == models.RoomLobby {
		return d.updateLobbyRoom(ctx, code, `UPDATE rooms SET status = $2 WHERE id = $1 AND status = 'LOBBY'`, string(status))
	}
	return d.updateLobbyRoom(ctx, code, `UPDATE rooms SET status = $2 WHERE id = $1`, string(status))
}

// updateLobbyRoom runs q and tells a missing room apart from one that already left the lobby.
func (d *PostgresDirectory) updateLobbyRoom(ctx context.Context, code, q string, arg string) error {
	return pgx.BeginTxFunc(ctx, d.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, code, arg)
		if err != nil {
			return fmt.Errorf("update room %s: %w", code, err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, code).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrRoomNotInLobby
	})
}
