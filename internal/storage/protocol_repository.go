package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/types"
)

// protocolNamespace scopes deterministic catalog row ids
var protocolNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wallet-insights/protocol-catalog"))

// ProtocolRow is a persisted catalog entry
type ProtocolRow struct {
	ID              uuid.UUID      `json:"id"`
	ContractAddress string         `json:"contractAddress"`
	Name            string         `json:"name"`
	Category        types.Category `json:"category"`
	Tags            []string       `json:"tags"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ProtocolRepository persists the protocol catalog in Postgres
type ProtocolRepository struct {
	db *PostgresDB
}

// NewProtocolRepository creates a new protocol repository
func NewProtocolRepository(db *PostgresDB) *ProtocolRepository {
	return &ProtocolRepository{db: db}
}

// ProtocolRowID returns the stable row id for a contract address
func ProtocolRowID(address string) uuid.UUID {
	return uuid.NewSHA1(protocolNamespace, []byte(strings.ToLower(address)))
}

// List returns every catalog row ordered by address
func (r *ProtocolRepository) List(ctx context.Context) ([]ProtocolRow, error) {
	query := `
		SELECT id, contract_address, name, category, tags, created_at, updated_at
		FROM protocol_catalog
		ORDER BY contract_address
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query protocol catalog: %w", err)
	}
	defer rows.Close()

	var out []ProtocolRow
	for rows.Next() {
		var row ProtocolRow
		var category string
		if err := rows.Scan(&row.ID, &row.ContractAddress, &row.Name, &category, &row.Tags, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan protocol row: %w", err)
		}
		row.Category = types.Category(category)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate protocol rows: %w", err)
	}

	return out, nil
}

// Count returns the number of cataloged contracts
func (r *ProtocolRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool().QueryRow(ctx, `SELECT count(*) FROM protocol_catalog`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count protocol catalog: %w", err)
	}
	return n, nil
}

// Upsert inserts or updates catalog entries in a single transaction
func (r *ProtocolRepository) Upsert(ctx context.Context, entries []catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO protocol_catalog (id, contract_address, name, category, tags)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (contract_address) DO UPDATE
		SET name = EXCLUDED.name,
		    category = EXCLUDED.category,
		    tags = EXCLUDED.tags,
		    updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		addr := strings.ToLower(e.Address)
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(query, ProtocolRowID(addr), addr, e.Name, string(e.Category), tags)
	}

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin catalog upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert protocol catalog: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit catalog upsert: %w", err)
	}
	return nil
}

// LoadCatalog builds an immutable catalog from the persisted rows
func (r *ProtocolRepository) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]catalog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, catalog.Entry{
			Address:  row.ContractAddress,
			Name:     row.Name,
			Category: row.Category,
			Tags:     row.Tags,
		})
	}
	return catalog.New(entries)
}

// SeedFromEmbedded writes the embedded catalog when the table is empty and
// reports how many entries were written
func (r *ProtocolRepository) SeedFromEmbedded(ctx context.Context) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	embedded, err := catalog.Load()
	if err != nil {
		return 0, err
	}
	entries := embedded.Entries()
	if err := r.Upsert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
