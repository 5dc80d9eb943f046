package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// orderSchemaVersion is the version of the stored order payload.
// Rows written with another version are ignored on load.
const orderSchemaVersion = 1

// orderRepository implements domain.OrderRepository
type orderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

// OrderKey returns the preference key of a bucket order
func OrderKey(key domain.BucketKey) string {
	return fmt.Sprintf("asset_order_%s_%s", key.Category, key.Market)
}

// Load retrieves the stored order of a bucket
func (r *orderRepository) Load(ctx context.Context, key domain.BucketKey) ([]string, bool, error) {
	query := r.db.rebind(`
		SELECT schema_version, ids
		FROM view_preferences
		WHERE pref_key = ?
	`)

	var (
		version int
		payload string
	)
	err := r.db.QueryRowContext(ctx, query, OrderKey(key)).Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get order: %w", err)
	}

	if version != orderSchemaVersion {
		logger.FromContext(ctx).Warn("Ignoring stored order with unknown schema", "key", OrderKey(key), "version", version)
		return nil, false, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		logger.FromContext(ctx).Warn("Ignoring malformed stored order", "key", OrderKey(key), "error", err)
		return nil, false, nil
	}
	return ids, true, nil
}

// Save replaces the stored order of a bucket
func (r *orderRepository) Save(ctx context.Context, key domain.BucketKey, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	query := r.db.rebind(`
		INSERT INTO view_preferences (pref_key, schema_version, ids, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (pref_key) DO UPDATE
		SET schema_version = excluded.schema_version, ids = excluded.ids, updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, OrderKey(key), orderSchemaVersion, string(payload)); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}
