package instrument

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresProvider reads users and instruments from payment_users, payment_instruments and
// instrument_charges. Every lookup runs in its own read-only snapshot.
type PostgresProvider struct {
	db *sqlx.DB
}

func NewPostgresProvider(db *sqlx.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

const selectInstrumentsSQL = `
	SELECT
		i.instrument_id, i.kind, i.brand, i.last4, i.nickname, i.status,
		i.available_credit, i.daily_limit,
		COALESCE((
			SELECT SUM(c.amount)
			FROM instrument_charges c
			WHERE c.user_id = i.user_id
			  AND c.instrument_id = i.instrument_id
			  AND c.charged_at >= date_trunc('day', now())
		), 0) AS spent_today
	FROM payment_instruments i
	WHERE i.user_id = $1
	ORDER BY i.position, i.instrument_id
`

func (p *PostgresProvider) Lookup(ctx context.Context, userID string) ([]Record, error) {
	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM payment_users WHERE user_id = $1)`, userID); err != nil {
		return nil, fmt.Errorf("postgres: user exists: %w", err)
	}
	if !exists {
		var known []string
		if err := tx.SelectContext(ctx, &known, `
			SELECT user_id FROM payment_users
			WHERE user_id <> $1
			ORDER BY user_id
			LIMIT $2
		`, userID, MaxKnownUserIDs); err != nil {
			return nil, fmt.Errorf("postgres: known users: %w", err)
		}
		return nil, NewNotFoundError(userID, known)
	}

	records := []Record{}
	if err := tx.SelectContext(ctx, &records, selectInstrumentsSQL, userID); err != nil {
		return nil, fmt.Errorf("postgres: instruments: %w", err)
	}
	return records, tx.Commit()
}

// SeedUser replaces a user's instruments with doc. Spent-today is written as one charge row
// dated now.
func (p *PostgresProvider) SeedUser(ctx context.Context, doc UserDocument) error {
	records, err := doc.Records()
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payment_users (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
	`, doc.UserID, doc.Name); err != nil {
		return fmt.Errorf("postgres: upsert user %s: %w", doc.UserID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM instrument_charges WHERE user_id = $1`, doc.UserID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_instruments WHERE user_id = $1`, doc.UserID); err != nil {
		return err
	}

	for pos, r := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payment_instruments
				(user_id, instrument_id, position, kind, brand, last4, nickname, status, available_credit, daily_limit)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, doc.UserID, r.InstrumentID, pos, string(r.Kind), r.Brand, r.Last4, r.Nickname, string(r.Status),
			r.AvailableCredit, r.DailyLimit); err != nil {
			return fmt.Errorf("postgres: insert instrument %s: %w", r.InstrumentID, err)
		}
		if r.SpentToday.IsPositive() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO instrument_charges (user_id, instrument_id, amount)
				VALUES ($1, $2, $3)
			`, doc.UserID, r.InstrumentID, r.SpentToday); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
