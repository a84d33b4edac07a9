// Package erp implements the external posting connector: a uniform
// post/reverse/park/query interface over heterogeneous accounting system
// families, with per-family authentication and payload mapping.
package erp

import (
	"context"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SystemFamily tags one external accounting system family.
type SystemFamily string

const (
	FamilyS4Cloud     SystemFamily = "s4hana_cloud"
	FamilyS4OnPrem    SystemFamily = "s4hana_onprem"
	FamilyECCLegacy   SystemFamily = "ecc_legacy"
	FamilyBusinessOne SystemFamily = "business_one"
)

// CredentialKind selects the authentication scheme of a credential block.
type CredentialKind string

const (
	CredentialOAuth       CredentialKind = "oauth_client_credentials"
	CredentialBasic       CredentialKind = "basic"
	CredentialCertificate CredentialKind = "certificate"
)

// Credentials is the credential block of one connector configuration.
// Exactly one scheme's fields are expected to be populated.
type Credentials struct {
	Kind CredentialKind

	// OAuth client credentials / certificate assertion
	ClientID     string
	ClientSecret string
	TokenURL     string

	// Basic auth and Business One session login
	Username  string
	Password  string
	CompanyDB string

	// Certificate: PEM-encoded RSA private key used to sign the client
	// assertion, plus the key id the external system expects.
	PrivateKeyPEM string
	KeyID         string
}

// Config configures one connector instance for one tenant.
type Config struct {
	Family          SystemFamily
	BaseURL         string
	CompanyCode     string
	ChartOfAccounts string
	Credentials     Credentials

	// Timeout bounds every external call; no operation blocks indefinitely.
	Timeout time.Duration

	// TokenSkew is the margin before token expiry at which the next call
	// re-authenticates transparently.
	TokenSkew time.Duration
}

// PostingDocument is the system-neutral input to post and park operations.
type PostingDocument struct {
	Reference      string // Caller's correlation id
	GovernanceCode string // Selects the external document type
	PostingDate    time.Time
	CurrencyCode   string
	HeaderText     string
	Lines          []domain.GLLine
}

// OpenItem is one uncleared item on an external account.
type OpenItem struct {
	DocumentNumber string          `json:"documentNumber"`
	AccountID      string          `json:"accountID"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	DueDate        time.Time       `json:"dueDate"`
}

// MasterRecord is one master-data record from the external system.
type MasterRecord struct {
	EntityType string            `json:"entityType"`
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SystemInfo describes the connected external system.
type SystemInfo struct {
	Family          SystemFamily `json:"family"`
	Version         string       `json:"version"`
	CompanyCode     string       `json:"companyCode"`
	ChartOfAccounts string       `json:"chartOfAccounts"`
}

// Connector is the capability interface every system family implements.
// Implementations never retry internally; failures carry a retryable
// classification and retry policy belongs to the caller.
type Connector interface {
	// PostDocument posts a balanced document and returns the external
	// document created. On ambiguous or cancelled outcomes the posting is
	// treated as failed, never assumed-succeeded.
	PostDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error)

	// ReverseDocument reverses a previously posted document, producing a new
	// external document.
	ReverseDocument(ctx context.Context, documentNumber, reason string) (*domain.ExternalDocument, error)

	// ParkDocument stores the document without posting it.
	ParkDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error)

	// SyncMasterData pulls master data of the given entity type and returns
	// the number of records fetched.
	SyncMasterData(ctx context.Context, entityType string) (int, error)

	// GetMasterData fetches one master-data record by key.
	GetMasterData(ctx context.Context, entityType, key string) (*MasterRecord, error)

	// GetBalance returns the balance of an account for a fiscal period key.
	GetBalance(ctx context.Context, accountCode, fiscalPeriodKey string) (decimal.Decimal, error)

	// GetOpenItems lists uncleared items for a vendor/customer/GL account.
	GetOpenItems(ctx context.Context, accountType, accountID string) ([]OpenItem, error)

	// GetDocument fetches a posted document by number and fiscal year.
	GetDocument(ctx context.Context, documentNumber, fiscalYear string) (*domain.ExternalDocument, error)

	// ValidateConnection verifies reachability and credentials. Must fail
	// fast within the configured timeout rather than hang the caller.
	ValidateConnection(ctx context.Context) error

	// GetSystemInfo describes the connected system.
	GetSystemInfo(ctx context.Context) (SystemInfo, error)
}
