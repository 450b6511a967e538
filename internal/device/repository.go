package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// Repository persists registry snapshots so device identity survives restarts.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Load returns every persisted handle. Presentation references are not
	// persisted, so returned handles have a nil Presentation.
	Load(ctx context.Context) ([]*Handle, error)

	// GetByID retrieves one persisted handle.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Handle, error)

	// PersistRegistrySnapshot inserts or replaces the given handles.
	PersistRegistrySnapshot(ctx context.Context, handles []*Handle) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load returns every persisted handle ordered by ID.
func (r *SQLiteRepository) Load(ctx context.Context) ([]*Handle, error) {
	query := `
		SELECT id, vendor_id, latest, attributes
		FROM devices
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var handles []*Handle
	for rows.Next() {
		h, err := scanHandle(rows)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return handles, nil
}

// GetByID retrieves one persisted handle.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Handle, error) {
	query := `
		SELECT id, vendor_id, latest, attributes
		FROM devices
		WHERE id = ?`

	h, err := scanHandle(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return h, nil
}

// PersistRegistrySnapshot inserts or replaces the given handles in one transaction.
func (r *SQLiteRepository) PersistRegistrySnapshot(ctx context.Context, handles []*Handle) error {
	if len(handles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO devices (id, vendor_id, name, kind, latest, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			vendor_id = excluded.vendor_id,
			name = excluded.name,
			kind = excluded.kind,
			latest = excluded.latest,
			attributes = excluded.attributes,
			updated_at = excluded.updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, h := range handles {
		latestJSON, err := json.Marshal(h.Latest)
		if err != nil {
			return fmt.Errorf("marshalling latest payload for %s: %w", h.ID, err)
		}

		var attrsJSON sql.NullString
		if h.Attributes != nil {
			b, err := json.Marshal(h.Attributes)
			if err != nil {
				return fmt.Errorf("marshalling attributes for %s: %w", h.ID, err)
			}
			attrsJSON = sql.NullString{String: string(b), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			h.ID,
			h.VendorID,
			h.Latest.Name,
			string(h.Latest.Kind),
			string(latestJSON),
			attrsJSON,
			now,
			now,
		); err != nil {
			return fmt.Errorf("persisting device %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandle(row rowScanner) (*Handle, error) {
	var (
		h          Handle
		latestJSON string
		attrsJSON  sql.NullString
	)

	if err := row.Scan(&h.ID, &h.VendorID, &latestJSON, &attrsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	if err := json.Unmarshal([]byte(latestJSON), &h.Latest); err != nil {
		return nil, fmt.Errorf("unmarshalling latest payload for %s: %w", h.ID, err)
	}

	if attrsJSON.Valid && attrsJSON.String != "" {
		var attrs generator.Attributes
		if err := json.Unmarshal([]byte(attrsJSON.String), &attrs); err != nil {
			return nil, fmt.Errorf("unmarshalling attributes for %s: %w", h.ID, err)
		}
		h.Attributes = &attrs
	}

	return &h, nil
}
