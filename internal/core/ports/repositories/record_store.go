package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Logical collection names understood by the persistence collaborator.
// The concrete backend decides how these map onto physical storage.
const (
	CollectionActors           = "core_actors"
	CollectionEntities         = "core_entities"
	CollectionTransactions     = "universal_transactions"
	CollectionTransactionLines = "universal_transaction_lines"
	CollectionRelationships    = "core_relationships"
	CollectionDynamicData      = "core_dynamic_data"
)

// Well-known record field names shared between the auditor and the backends.
const (
	FieldID             = "id"
	FieldCreatedBy      = "created_by"
	FieldUpdatedBy      = "updated_by"
	FieldCreatedAt      = "created_at"
	FieldUpdatedAt      = "updated_at"
	FieldGovernanceCode = "governance_code"
	FieldTransactionID  = "transaction_id"
	FieldCurrencyCode   = "currency_code"
	FieldSide           = "side"
	FieldAmount         = "amount"
	FieldIsLedger       = "is_ledger"
)

// Record is one row of a logical collection: named fields, no assumed wire
// format beyond that.
type Record map[string]any

// StringField returns the named field as a string, or "" if absent/not a string.
func (r Record) StringField(name string) string {
	if v, ok := r[name].(string); ok {
		return v
	}
	return ""
}

// DecimalField returns the named field as a decimal, accepting the numeric
// shapes different backends produce.
func (r Record) DecimalField(name string) decimal.Decimal {
	switch v := r[name].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

// TimeField returns the named field as a time, reporting whether it was present.
func (r Record) TimeField(name string) (time.Time, bool) {
	if v, ok := r[name].(time.Time); ok && !v.IsZero() {
		return v, true
	}
	return time.Time{}, false
}

// BoolField returns the named field as a bool, defaulting to false.
func (r Record) BoolField(name string) bool {
	v, ok := r[name].(bool)
	return ok && v
}

// RecordFilter optionally restricts a collection sweep by organization and
// record-creation time range.
type RecordFilter struct {
	OrganizationID string
	From           *time.Time
	To             *time.Time
}

// RecordStore is the read-only query capability the auditor consumes. The
// concrete RPC/SQL layer behind it is out of scope for this core.
type RecordStore interface {
	// QueryRecords returns all rows of the named logical collection matching
	// the filter.
	QueryRecords(ctx context.Context, collection string, filter RecordFilter) ([]Record, error)

	// CountRecordsSince counts rows of the collection created at or after the
	// given instant, within the filter's organization scope.
	CountRecordsSince(ctx context.Context, collection string, filter RecordFilter, since time.Time) (int, error)
}
