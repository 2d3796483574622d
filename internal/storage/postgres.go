package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository and ensures the schema exists
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

// LoadState returns every stored ledger entry
func (r *PostgresRepository) LoadState(ctx context.Context) ([]ledger.Change, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM ledger_state ORDER BY key`)
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
func (r *PostgresRepository) Commit(ctx context.Context, c *Commit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, change := range c.Changes {
		row := toStateRow(change)
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_state (key, account, name, value, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`, row.key, row.account, row.name, row.value)
		if err != nil {
			return fmt.Errorf("failed to save ledger entry %s: %w", row.name, err)
		}
	}

	for _, token := range c.Tokens {
		if err := r.saveToken(ctx, tx, token); err != nil {
			return err
		}
	}

	if c.CustodyBalance != nil {
		balance, err := toInt64(*c.CustodyBalance, "custody balance")
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO custody (id, balance, updated_at) VALUES (1, $1, NOW())
			ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = NOW()
		`, balance)
		if err != nil {
			return fmt.Errorf("failed to save custody balance: %w", err)
		}
	}

	if c.Activity != nil {
		if err := r.saveActivity(ctx, tx, c.Activity); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *PostgresRepository) saveToken(ctx context.Context, tx pgx.Tx, token *models.RewardToken) error {
	id, err := toInt64(token.TokenID, "token id")
	if err != nil {
		return err
	}
	total, err := toInt64(token.Spec.Total, "token total")
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reward_tokens (
			token_id, total, decimals, unit_name, display_name,
			content_ref, owner, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (token_id) DO UPDATE SET owner = EXCLUDED.owner
	`,
		id,
		total,
		int32(token.Spec.Decimals),
		token.Spec.UnitName,
		token.Spec.DisplayName,
		token.Spec.ContentRef,
		token.Owner,
		token.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to save reward token %d: %w", token.TokenID, err)
	}
	return nil
}

func (r *PostgresRepository) saveActivity(ctx context.Context, tx pgx.Tx, a *models.Activity) error {
	actionsJSON, err := json.Marshal(nonNilActions(a.Actions))
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	var projectID *int64
	if a.ProjectID != nil {
		id, err := toInt64(*a.ProjectID, "project id")
		if err != nil {
			return err
		}
		projectID = &id
	}
	ledgerTime, err := toInt64(a.LedgerTime, "ledger time")
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activities (
			request_id, kind, sender, project_id, accepted, code,
			message, actions, ledger_time, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (request_id) DO NOTHING
	`,
		a.RequestID,
		a.Kind,
		a.Sender,
		projectID,
		a.Accepted,
		a.Code,
		a.Message,
		actionsJSON,
		ledgerTime,
		a.DurationMs,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// CustodyBalance returns the persisted custody balance, zero before the first deposit
func (r *PostgresRepository) CustodyBalance(ctx context.Context) (uint64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(balance), 0) FROM custody WHERE id = 1`).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get custody balance: %w", err)
	}
	return fromInt64(balance, "custody balance")
}

// GetToken retrieves a reward token by id
func (r *PostgresRepository) GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error) {
	id, err := toInt64(tokenID, "token id")
	if err != nil {
		return nil, err
	}

	var (
		token    models.RewardToken
		total    int64
		decimals int32
	)
	err = r.pool.QueryRow(ctx, `
		SELECT total, decimals, unit_name, display_name, content_ref, owner, request_id
		FROM reward_tokens
		WHERE token_id = $1
	`, id).Scan(
		&total,
		&decimals,
		&token.Spec.UnitName,
		&token.Spec.DisplayName,
		&token.Spec.ContentRef,
		&token.Owner,
		&token.RequestID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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
func (r *PostgresRepository) MaxTokenID(ctx context.Context) (uint64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(token_id), 0) FROM reward_tokens`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get max token id: %w", err)
	}
	return fromInt64(id, "token id")
}

// ListActivities lists activities, newest first
func (r *PostgresRepository) ListActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error) {
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
		args = append(args, id)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.Sender != "" {
		args = append(args, filter.Sender)
		where = append(where, fmt.Sprintf("sender = $%d", len(args)))
	}

	query := `
		SELECT request_id, kind, sender, project_id, accepted, code,
			message, actions, ledger_time, duration_ms, created_at
		FROM activities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, request_id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			a           models.Activity
			projectID   *int64
			actionsJSON []byte
			ledgerTime  int64
			createdAt   time.Time
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

		if err := json.Unmarshal(actionsJSON, &a.Actions); err != nil {
			slog.Warn("Failed to unmarshal actions", "request_id", a.RequestID, "error", err)
		}
		if projectID != nil {
			id := uint64(*projectID)
			a.ProjectID = &id
		}
		a.LedgerTime = uint64(ledgerTime)
		a.CreatedAt = createdAt.UTC()

		activities = append(activities, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// Ping checks if the database connection is alive
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func nonNilActions(actions []models.Action) []models.Action {
	if actions == nil {
		return []models.Action{}
	}
	return actions
}
