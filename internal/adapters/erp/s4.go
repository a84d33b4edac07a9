package erp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// s4Connector talks to the S/4HANA family. Cloud instances authenticate via
// OAuth (client credentials or certificate assertion); on-premise instances
// use basic auth against the gateway. The document model is identical.
type s4Connector struct {
	cfg    Config
	client *restClient
	tokens *tokenCache
}

var _ Connector = (*s4Connector)(nil)

// NewS4Cloud creates a cloud connector with a lazy, cached OAuth token.
func NewS4Cloud(cfg Config) (Connector, error) {
	var fetch tokenFetch
	switch cfg.Credentials.Kind {
	case CredentialOAuth:
		fetch = oauthTokenFetch(cfg.Credentials, nil)
	case CredentialCertificate:
		fetch = certTokenFetch(cfg.Credentials, nil)
	default:
		return nil, fmt.Errorf("%w: credential kind %q for %s", apperrors.ErrValidation, cfg.Credentials.Kind, FamilyS4Cloud)
	}
	tokens := newTokenCache(fetch, cfg.TokenSkew)
	return &s4Connector{
		cfg:    cfg,
		client: newRestClient(FamilyS4Cloud, cfg, bearerAuth(tokens)),
		tokens: tokens,
	}, nil
}

// NewS4OnPrem creates an on-premise connector with basic auth.
func NewS4OnPrem(cfg Config) (Connector, error) {
	if cfg.Credentials.Kind != CredentialBasic {
		return nil, fmt.Errorf("%w: credential kind %q for %s", apperrors.ErrValidation, cfg.Credentials.Kind, FamilyS4OnPrem)
	}
	return &s4Connector{
		cfg:    cfg,
		client: newRestClient(FamilyS4OnPrem, cfg, basicAuth(cfg.Credentials.Username, cfg.Credentials.Password)),
	}, nil
}

// journalEntryPayload is the wire shape of a post/park call.
type journalEntryPayload struct {
	CompanyCode     string         `json:"companyCode"`
	DocumentType    string         `json:"documentType"`
	PostingDate     string         `json:"postingDate"`
	Reference       string         `json:"reference"`
	HeaderText      string         `json:"headerText"`
	ChartOfAccounts string         `json:"chartOfAccounts"`
	Items           []externalLine `json:"items"`
}

// journalEntryResponse is the wire shape of the created document.
type journalEntryResponse struct {
	DocumentNumber string `json:"documentNumber"`
	FiscalYear     string `json:"fiscalYear"`
	PostingDate    string `json:"postingDate"`
	DocumentType   string `json:"documentType"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

func (s *s4Connector) buildPayload(doc PostingDocument) journalEntryPayload {
	return journalEntryPayload{
		CompanyCode:     s.cfg.CompanyCode,
		DocumentType:    DocumentTypeFor(doc.GovernanceCode),
		PostingDate:     doc.PostingDate.UTC().Format("2006-01-02"),
		Reference:       doc.Reference,
		HeaderText:      doc.HeaderText,
		ChartOfAccounts: s.cfg.ChartOfAccounts,
		Items:           mapLines(doc.Lines),
	}
}

func (s *s4Connector) buildDocument(doc PostingDocument, resp journalEntryResponse, status domain.DocumentStatus) *domain.ExternalDocument {
	return &domain.ExternalDocument{
		DocumentNumber:  resp.DocumentNumber,
		FiscalPeriodKey: FiscalPeriodKey(doc),
		CompanyCode:     s.cfg.CompanyCode,
		DocumentType:    DocumentTypeFor(doc.GovernanceCode),
		PostingDate:     doc.PostingDate,
		Reference:       doc.Reference,
		Status:          status,
	}
}

// PostDocument posts a journal entry.
func (s *s4Connector) PostDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error) {
	var resp journalEntryResponse
	if err := s.client.doJSON(ctx, "post_document", http.MethodPost, "/api/v1/journal-entries", s.buildPayload(doc), &resp); err != nil {
		return nil, err
	}
	return s.buildDocument(doc, resp, domain.DocumentPosted), nil
}

// ParkDocument stores the entry without posting it.
func (s *s4Connector) ParkDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error) {
	var resp journalEntryResponse
	if err := s.client.doJSON(ctx, "park_document", http.MethodPost, "/api/v1/journal-entries/park", s.buildPayload(doc), &resp); err != nil {
		return nil, err
	}
	return s.buildDocument(doc, resp, domain.DocumentParked), nil
}

// ReverseDocument reverses a posted document, producing a new one.
func (s *s4Connector) ReverseDocument(ctx context.Context, documentNumber, reason string) (*domain.ExternalDocument, error) {
	payload := map[string]string{
		"companyCode":    s.cfg.CompanyCode,
		"reversalReason": reason,
	}
	var resp journalEntryResponse
	path := fmt.Sprintf("/api/v1/journal-entries/%s/reverse", url.PathEscape(documentNumber))
	if err := s.client.doJSON(ctx, "reverse_document", http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	postingDate, _ := time.Parse("2006-01-02", resp.PostingDate)
	return &domain.ExternalDocument{
		DocumentNumber:  resp.DocumentNumber,
		FiscalPeriodKey: fmt.Sprintf("%04d-%02d", postingDate.Year(), int(postingDate.Month())),
		CompanyCode:     s.cfg.CompanyCode,
		DocumentType:    resp.DocumentType,
		PostingDate:     postingDate,
		Reference:       documentNumber,
		Status:          domain.DocumentPosted,
	}, nil
}

// SyncMasterData pulls all master records of the entity type.
func (s *s4Connector) SyncMasterData(ctx context.Context, entityType string) (int, error) {
	var resp struct {
		Records []MasterRecord `json:"records"`
	}
	path := fmt.Sprintf("/api/v1/master-data/%s", url.PathEscape(entityType))
	if err := s.client.doJSON(ctx, "sync_master_data", http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return len(resp.Records), nil
}

// GetMasterData fetches one master record by key.
func (s *s4Connector) GetMasterData(ctx context.Context, entityType, key string) (*MasterRecord, error) {
	var record MasterRecord
	path := fmt.Sprintf("/api/v1/master-data/%s/%s", url.PathEscape(entityType), url.PathEscape(key))
	if err := s.client.doJSON(ctx, "get_master_data", http.MethodGet, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetBalance returns the account balance for a fiscal period key.
func (s *s4Connector) GetBalance(ctx context.Context, accountCode, fiscalPeriodKey string) (decimal.Decimal, error) {
	var resp struct {
		Balance decimal.Decimal `json:"balance"`
	}
	path := fmt.Sprintf("/api/v1/accounts/%s/balance?period=%s", url.PathEscape(accountCode), url.QueryEscape(fiscalPeriodKey))
	if err := s.client.doJSON(ctx, "get_balance", http.MethodGet, path, nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

// GetOpenItems lists uncleared items for an account.
func (s *s4Connector) GetOpenItems(ctx context.Context, accountType, accountID string) ([]OpenItem, error) {
	var resp struct {
		Items []OpenItem `json:"items"`
	}
	path := fmt.Sprintf("/api/v1/open-items?accountType=%s&accountID=%s", url.QueryEscape(accountType), url.QueryEscape(accountID))
	if err := s.client.doJSON(ctx, "get_open_items", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetDocument fetches a posted document by number and fiscal year.
func (s *s4Connector) GetDocument(ctx context.Context, documentNumber, fiscalYear string) (*domain.ExternalDocument, error) {
	var resp journalEntryResponse
	path := fmt.Sprintf("/api/v1/journal-entries/%s?fiscalYear=%s", url.PathEscape(documentNumber), url.QueryEscape(fiscalYear))
	if err := s.client.doJSON(ctx, "get_document", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	postingDate, _ := time.Parse("2006-01-02", resp.PostingDate)
	status := domain.DocumentPosted
	if resp.Status == "PARKED" {
		status = domain.DocumentParked
	}
	return &domain.ExternalDocument{
		DocumentNumber:  resp.DocumentNumber,
		FiscalPeriodKey: fmt.Sprintf("%04d-%02d", postingDate.Year(), int(postingDate.Month())),
		CompanyCode:     s.cfg.CompanyCode,
		DocumentType:    resp.DocumentType,
		PostingDate:     postingDate,
		Status:          status,
	}, nil
}

// ValidateConnection verifies reachability and credentials.
func (s *s4Connector) ValidateConnection(ctx context.Context) error {
	return s.client.doJSON(ctx, "validate_connection", http.MethodGet, "/api/v1/ping", nil, nil)
}

// GetSystemInfo describes the connected system.
func (s *s4Connector) GetSystemInfo(ctx context.Context) (SystemInfo, error) {
	var resp struct {
		Version string `json:"version"`
	}
	if err := s.client.doJSON(ctx, "get_system_info", http.MethodGet, "/api/v1/system-info", nil, &resp); err != nil {
		return SystemInfo{}, err
	}
	return SystemInfo{
		Family:          s.client.family,
		Version:         resp.Version,
		CompanyCode:     s.cfg.CompanyCode,
		ChartOfAccounts: s.cfg.ChartOfAccounts,
	}, nil
}
