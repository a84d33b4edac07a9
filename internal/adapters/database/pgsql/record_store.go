package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	portsrepo "github.com/heraops/ledger-integrity-engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// collectionTables maps logical collection names onto physical tables.
var collectionTables = map[string]string{
	portsrepo.CollectionActors:           "core_actors",
	portsrepo.CollectionEntities:         "core_entities",
	portsrepo.CollectionTransactions:     "universal_transactions",
	portsrepo.CollectionTransactionLines: "universal_transaction_lines",
	portsrepo.CollectionRelationships:    "core_relationships",
	portsrepo.CollectionDynamicData:      "core_dynamic_data",
}

// PgxRecordStore is the PostgreSQL-backed persistence collaborator used by
// the auditor. Read-only: this core never writes domain data.
type PgxRecordStore struct {
	pool *pgxpool.Pool
}

// NewPgxRecordStore creates a record store over the given connection pool.
func NewPgxRecordStore(pool *pgxpool.Pool) portsrepo.RecordStore {
	return &PgxRecordStore{pool: pool}
}

var _ portsrepo.RecordStore = (*PgxRecordStore)(nil)

// QueryRecords returns all rows of the named logical collection matching the
// filter, ordered by record id so sweeps are repeatable.
func (r *PgxRecordStore) QueryRecords(ctx context.Context, collection string, filter portsrepo.RecordFilter) ([]portsrepo.Record, error) {
	table, ok := collectionTables[collection]
	if !ok {
		return nil, fmt.Errorf("%w: unknown collection %s", apperrors.ErrNotFound, collection)
	}

	if collection == portsrepo.CollectionTransactionLines {
		return r.queryTransactionLines(ctx, table, filter)
	}

	query := fmt.Sprintf(`
		SELECT id, governance_code, created_by, updated_by, created_at, updated_at
		FROM %s
		WHERE ($1 = '' OR organization_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY id;
	`, table)

	rows, err := r.pool.Query(ctx, query, filter.OrganizationID, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var records []portsrepo.Record
	for rows.Next() {
		var (
			id                   string
			gov, createdBy, updatedBy *string
			createdAt, updatedAt *time.Time
		)
		if err := rows.Scan(&id, &gov, &createdBy, &updatedBy, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		records = append(records, buildRecord(id, gov, createdBy, updatedBy, createdAt, updatedAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading %s rows: %w", collection, err)
	}
	return records, nil
}

// queryTransactionLines adds the ledger-specific columns the balance check
// groups on.
func (r *PgxRecordStore) queryTransactionLines(ctx context.Context, table string, filter portsrepo.RecordFilter) ([]portsrepo.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, governance_code, created_by, updated_by, created_at, updated_at,
		       transaction_id, currency_code, side, amount, is_ledger
		FROM %s
		WHERE ($1 = '' OR organization_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY id;
	`, table)

	rows, err := r.pool.Query(ctx, query, filter.OrganizationID, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction lines: %w", err)
	}
	defer rows.Close()

	var records []portsrepo.Record
	for rows.Next() {
		var (
			id                   string
			gov, createdBy, updatedBy *string
			createdAt, updatedAt *time.Time
			txnID, currency      string
			side                 string
			amount               decimal.Decimal
			isLedger             bool
		)
		if err := rows.Scan(&id, &gov, &createdBy, &updatedBy, &createdAt, &updatedAt,
			&txnID, &currency, &side, &amount, &isLedger); err != nil {
			return nil, fmt.Errorf("failed to scan transaction line row: %w", err)
		}
		rec := buildRecord(id, gov, createdBy, updatedBy, createdAt, updatedAt)
		rec[portsrepo.FieldTransactionID] = txnID
		rec[portsrepo.FieldCurrencyCode] = currency
		rec[portsrepo.FieldSide] = side
		rec[portsrepo.FieldAmount] = amount
		rec[portsrepo.FieldIsLedger] = isLedger
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading transaction line rows: %w", err)
	}
	return records, nil
}

// CountRecordsSince counts rows created at or after the given instant.
func (r *PgxRecordStore) CountRecordsSince(ctx context.Context, collection string, filter portsrepo.RecordFilter, since time.Time) (int, error) {
	table, ok := collectionTables[collection]
	if !ok {
		return 0, fmt.Errorf("%w: unknown collection %s", apperrors.ErrNotFound, collection)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE ($1 = '' OR organization_id = $1)
		  AND created_at >= $2;
	`, table)

	var count int
	if err := r.pool.QueryRow(ctx, query, filter.OrganizationID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s records: %w", collection, err)
	}
	return count, nil
}

func buildRecord(id string, gov, createdBy, updatedBy *string, createdAt, updatedAt *time.Time) portsrepo.Record {
	rec := portsrepo.Record{portsrepo.FieldID: id}
	if gov != nil {
		rec[portsrepo.FieldGovernanceCode] = *gov
	}
	if createdBy != nil {
		rec[portsrepo.FieldCreatedBy] = *createdBy
	}
	if updatedBy != nil {
		rec[portsrepo.FieldUpdatedBy] = *updatedBy
	}
	if createdAt != nil {
		rec[portsrepo.FieldCreatedAt] = *createdAt
	}
	if updatedAt != nil {
		rec[portsrepo.FieldUpdatedAt] = *updatedAt
	}
	return rec
}
