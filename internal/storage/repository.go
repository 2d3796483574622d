package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"crowdfund/internal/ledger"
	"crowdfund/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for all storage operations
type Repository interface {
	// Ledger state
	LoadState(ctx context.Context) ([]ledger.Change, error)

	// Commit persists everything one processed request produced, atomically
	Commit(ctx context.Context, c *Commit) error

	// Custody
	CustodyBalance(ctx context.Context) (uint64, error)

	// Reward tokens
	GetToken(ctx context.Context, tokenID uint64) (*models.RewardToken, error)
	MaxTokenID(ctx context.Context) (uint64, error)

	// Activities
	ListActivities(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error)

	// Health & Maintenance
	Ping(ctx context.Context) error
	Close() error
}

// Commit is the unit of persistence for one processed request
// A rejected request carries only its Activity.
type Commit struct {
	Changes        []ledger.Change
	Tokens         []*models.RewardToken // Created or re-owned tokens
	CustodyBalance *uint64               // Nil when the balance did not move
	Activity       *models.Activity
}

// ActivityFilter narrows ListActivities
type ActivityFilter struct {
	ProjectID *uint64
	Sender    string
	Limit     int
	Offset    int
}

// toInt64 narrows an amount to the signed column type both databases use
func toInt64(v uint64, field string) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s %d exceeds the storable range", field, v)
	}
	return int64(v), nil
}

func fromInt64(v int64, field string) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("stored %s is negative: %d", field, v)
	}
	return uint64(v), nil
}

// stateRow is the storable form of one ledger change
type stateRow struct {
	key     []byte
	account string
	name    string
	value   []byte
}

func toStateRow(c ledger.Change) stateRow {
	v := c.Value
	if v == nil {
		v = []byte{}
	}
	return stateRow{
		key:     c.Key.Bytes(),
		account: c.Key.Account(),
		name:    c.Key.String(),
		value:   v,
	}
}

func fromStateRow(key, value []byte) (ledger.Change, error) {
	k, err := ledger.ParseKey(key)
	if err != nil {
		return ledger.Change{}, fmt.Errorf("failed to parse stored key %x: %w", key, err)
	}
	return ledger.Change{Key: k, Value: value}, nil
}

func normalizeFilter(f ActivityFilter) ActivityFilter {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
