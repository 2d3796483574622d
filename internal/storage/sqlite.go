package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements the Repository interface on a single SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path and ensures the schema exists
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time; the host serializes commits anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// LoadState returns every stored ledger entry
func (r *SQLiteRepository) LoadState(ctx context.Context) ([]ledger.Change, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM ledger_state ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}
	defer rows.Close()

	var changes []ledger.Change
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		c, err := fromStateRow(key, value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger state: %w", err)
	}

	return changes, nil
}

// Commit persists one processed request in a single transaction
func (r *SQLiteRepository) Commit(ctx context.Context, c *Commit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := toMillis(time.Now())

	for _, change := range c.Changes {
		row := toStateRow(change)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_state (key, account, name, value, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, row.key, row.account, row.name, row.value, now)
		if err != nil {
			return fmt.Errorf("failed to save ledger entry %s: %w", row.name, err)
		}
	}

	for _, token := range c.Tokens {
		id, err := toInt64(token.TokenID, "token id")
		if err != nil {
			return err
		}
		total, err := toInt64(token.Spec.Total, "token total")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reward_tokens (
				token_id, total, decimals, unit_name, display_name,
				content_ref, owner, request_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (token_id) DO UPDATE SET owner = excluded.owner
		`,
			id,
			total,
			int64(token.Spec.Decimals),
			token.Spec.UnitName,
			token.Spec.DisplayName,
			token.Spec.ContentRef,
			token.Owner,
			token.RequestID,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save reward token %d: %w", token.TokenID, err)
		}
	}

	if c.CustodyBalance != nil {
		balance, err := toInt64(*c.CustodyBalance, "custody balance")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO custody (id, balance, updated_at) VALUES (1, ?, ?)
			ON CONFLICT (id) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at
		`, balance, now)
		if err != nil {
			return fmt.Errorf("failed to save custody balance: %w", err)
		}
	}

	if a := c.Activity; a != nil {
		actionsJSON, err := json.Marshal(nonNilActions(a.Actions))
		if err != nil {
			return fmt.Errorf("failed to marshal actions: %w", err)
		}
		var projectID sql.NullInt64
		if a.ProjectID != nil {
			id, err := toInt64(*a.ProjectID, "project id")
			if err != nil {
				return err
			}
			projectID = sql.NullInt64{Int64: id, Valid: true}
		}
		ledgerTime, err := toInt64(a.LedgerTime, "ledger time")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (
				request_id, kind, sender, project_id, accepted, code,
				message, actions, ledger_time, duration_ms, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (request_id) DO NOTHING
		`,
			a.RequestID,
			a.Kind,
			a.Sender,
			projectID,
			a.Accepted,
			a.Code,
			a.Message,
			string(actionsJSON),
			ledgerTime,
			a.DurationMs,
			toMillis(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CustodyBalance returns the persisted custody balance, zero before the first deposit
func (r *SQLiteRepository) CustodyBalance(ctx context.Context) (uint64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(balance), 0) FROM custody WHERE id = 1`).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get custody balance: %w", err)
	}
	return fromInt64(balance, "custody balance")
}

// GetToken retrieves a reward token by id
func (r *SQLiteRepository) GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error) {
	id, err := toInt64(tokenID, "token id")
	if err != nil {
		return nil, err
	}

	var (
		token    models.RewardToken
		total    int64
		decimals int64
	)
	err = r.db.QueryRowContext(ctx, `
		SELECT total, decimals, unit_name, display_name, content_ref, owner, request_id
		FROM reward_tokens
		WHERE token_id = ?
	`, id).Scan(
		&total,
		&decimals,
		&token.Spec.UnitName,
		&token.Spec.DisplayName,
		&token.Spec.ContentRef,
		&token.Owner,
		&token.RequestID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reward token %d: %w", tokenID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward token: %w", err)
	}

	token.TokenID = tokenID
	token.Spec.Decimals = uint32(decimals)
	if token.Spec.Total, err = fromInt64(total, "token total"); err != nil {
		return nil, err
	}
	return &token, nil
}

// MaxTokenID returns the highest token id issued so far, zero if none
func (r *SQLiteRepository) MaxTokenID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(token_id), 0) FROM reward_tokens`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get max token id: %w", err)
	}
	return fromInt64(id, "token id")
}

// ListActivities lists activities, newest first
func (r *SQLiteRepository) ListActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error) {
	filter = normalizeFilter(filter)

	var (
		where []string
		args  []any
	)
	if filter.ProjectID != nil {
		id, err := toInt64(*filter.ProjectID, "project id")
		if err != nil {
			return nil, err
		}
		where = append(where, "project_id = ?")
		args = append(args, id)
	}
	if filter.Sender != "" {
		where = append(where, "sender = ?")
		args = append(args, filter.Sender)
	}

	query := `
		SELECT request_id, kind, sender, project_id, accepted, code,
			message, actions, ledger_time, duration_ms, created_at
		FROM activities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, request_id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			a           models.Activity
			projectID   sql.NullInt64
			actionsJSON string
			ledgerTime  int64
			createdAt   int64
		)
		err := rows.Scan(
			&a.RequestID,
			&a.Kind,
			&a.Sender,
			&projectID,
			&a.Accepted,
			&a.Code,
			&a.Message,
			&actionsJSON,
			&ledgerTime,
			&a.DurationMs,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}

		if err := json.Unmarshal([]byte(actionsJSON), &a.Actions); err != nil {
			slog.Warn("Failed to unmarshal actions", "request_id", a.RequestID, "error", err)
		}
		if projectID.Valid {
			id := uint64(projectID.Int64)
			a.ProjectID = &id
		}
		a.LedgerTime = uint64(ledgerTime)
		a.CreatedAt = fromMillis(createdAt)

		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// Ping checks if the database is reachable
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
