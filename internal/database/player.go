package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/judgement/internal/models"
)

func (d *PostgresDirectory) PlayerExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := d.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (d *PostgresDirectory) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	err := d.DB.QueryRow(ctx, `SELECT id, name FROM players WHERE id = $1`, id).Scan(&p.ID, &p.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetPlayers returns the known players among ids, in no particular order.
func (d *PostgresDirectory) GetPlayers(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	rows, err := d.DB.Query(ctx, `SELECT id, name FROM players WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Player, error) {
		var p models.Player
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
}

func (d *PostgresDirectory) CreatePlayer(ctx context.Context, name *string) (uuid.UUID, error) {
	id := uuid.New()
	err := pgx.BeginTxFunc(ctx, d.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO players (id, name) VALUES ($1, $2)`, id, name)
		return err
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (d *PostgresDirectory) SetPlayerName(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := d.DB.Exec(ctx, `UPDATE players SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
