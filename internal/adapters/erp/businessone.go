package erp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heraops/ledger-integrity-engine/internal/apperrors"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// b1Connector talks to the small-business family via its Service Layer.
// Authentication is a session login; the session id is cached and renewed
// through the same token cache the OAuth connectors use.
type b1Connector struct {
	cfg     Config
	client  *restClient
	session *tokenCache
}

var _ Connector = (*b1Connector)(nil)

// b1SessionLifetime is the Service Layer default session timeout.
const b1SessionLifetime = 30 * time.Minute

// NewBusinessOne creates a small-business connector with a cached session.
func NewBusinessOne(cfg Config) (Connector, error) {
	if cfg.Credentials.Kind != CredentialBasic {
		return nil, fmt.Errorf("%w: credential kind %q for %s", apperrors.ErrValidation, cfg.Credentials.Kind, FamilyBusinessOne)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	session := newTokenCache(b1Login(cfg, httpClient), cfg.TokenSkew)
	conn := &b1Connector{cfg: cfg, session: session}
	conn.client = newRestClient(FamilyBusinessOne, cfg, func(ctx context.Context, req *http.Request) error {
		sid, err := session.Token(ctx)
		if err != nil {
			return fmt.Errorf("session login failed: %w", err)
		}
		req.Header.Set("Cookie", "B1SESSION="+sid)
		return nil
	})
	return conn, nil
}

// b1Login performs the Service Layer login and returns the session id.
func b1Login(cfg Config, client *http.Client) tokenFetch {
	return func(ctx context.Context) (string, time.Time, error) {
		payload := map[string]string{
			"CompanyDB": cfg.Credentials.CompanyDB,
			"UserName":  cfg.Credentials.Username,
			"Password":  cfg.Credentials.Password,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return "", time.Time{}, err
		}

		loginURL := strings.TrimRight(cfg.BaseURL, "/") + "/b1s/v1/Login"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(string(body)))
		if err != nil {
			return "", time.Time{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("login request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", time.Time{}, fmt.Errorf("login returned status %d", resp.StatusCode)
		}

		var out struct {
			SessionID string `json:"SessionId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", time.Time{}, fmt.Errorf("failed to decode login response: %w", err)
		}
		return out.SessionID, time.Now().Add(b1SessionLifetime), nil
	}
}

// b1JournalLine is one Service Layer journal entry line. Amounts use the
// signed convention: debit positive, credit negative.
type b1JournalLine struct {
	AccountCode string          `json:"AccountCode"`
	Amount      decimal.Decimal `json:"Amount"`
	LineMemo    string          `json:"LineMemo"`
}

type b1JournalEntry struct {
	ReferenceDate string          `json:"ReferenceDate"`
	Memo          string          `json:"Memo"`
	Reference     string          `json:"Reference"`
	Lines         []b1JournalLine `json:"JournalEntryLines"`
}

type b1JournalResponse struct {
	JdtNum        int    `json:"JdtNum"`
	ReferenceDate string `json:"ReferenceDate"`
}

func (b *b1Connector) buildEntry(doc PostingDocument) b1JournalEntry {
	lines := make([]b1JournalLine, len(doc.Lines))
	for i, line := range doc.Lines {
		lines[i] = b1JournalLine{
			AccountCode: line.AccountCode,
			Amount:      SignedAmount(line),
			LineMemo:    line.Memo,
		}
	}
	return b1JournalEntry{
		ReferenceDate: doc.PostingDate.UTC().Format("2006-01-02"),
		Memo:          doc.HeaderText,
		Reference:     doc.Reference,
		Lines:         lines,
	}
}

func (b *b1Connector) buildDocument(doc PostingDocument, resp b1JournalResponse, status domain.DocumentStatus) *domain.ExternalDocument {
	return &domain.ExternalDocument{
		DocumentNumber:  fmt.Sprintf("%d", resp.JdtNum),
		FiscalPeriodKey: FiscalPeriodKey(doc),
		CompanyCode:     b.cfg.CompanyCode,
		DocumentType:    DocumentTypeFor(doc.GovernanceCode),
		PostingDate:     doc.PostingDate,
		Reference:       doc.Reference,
		Status:          status,
	}
}

func (b *b1Connector) PostDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error) {
	var resp b1JournalResponse
	if err := b.client.doJSON(ctx, "post_document", http.MethodPost, "/b1s/v1/JournalEntries", b.buildEntry(doc), &resp); err != nil {
		return nil, err
	}
	return b.buildDocument(doc, resp, domain.DocumentPosted), nil
}

// ParkDocument stores the entry as a draft.
func (b *b1Connector) ParkDocument(ctx context.Context, doc PostingDocument) (*domain.ExternalDocument, error) {
	var resp b1JournalResponse
	if err := b.client.doJSON(ctx, "park_document", http.MethodPost, "/b1s/v1/Drafts", b.buildEntry(doc), &resp); err != nil {
		return nil, err
	}
	return b.buildDocument(doc, resp, domain.DocumentParked), nil
}

func (b *b1Connector) ReverseDocument(ctx context.Context, documentNumber, reason string) (*domain.ExternalDocument, error) {
	payload := map[string]string{"Reason": reason}
	var resp b1JournalResponse
	path := fmt.Sprintf("/b1s/v1/JournalEntries(%s)/Cancel", url.PathEscape(documentNumber))
	if err := b.client.doJSON(ctx, "reverse_document", http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	postingDate, _ := time.Parse("2006-01-02", resp.ReferenceDate)
	return &domain.ExternalDocument{
		DocumentNumber:  fmt.Sprintf("%d", resp.JdtNum),
		FiscalPeriodKey: fmt.Sprintf("%04d-%02d", postingDate.Year(), int(postingDate.Month())),
		CompanyCode:     b.cfg.CompanyCode,
		DocumentType:    DocTypeJournalEntry,
		PostingDate:     postingDate,
		Reference:       documentNumber,
		Status:          domain.DocumentPosted,
	}, nil
}

// b1MasterPaths maps neutral entity types onto Service Layer resources.
var b1MasterPaths = map[string]string{
	"gl_account":       "ChartOfAccounts",
	"business_partner": "BusinessPartners",
	"cost_center":      "ProfitCenters",
}

func (b *b1Connector) masterPath(entityType string) (string, error) {
	resource, ok := b1MasterPaths[entityType]
	if !ok {
		return "", fmt.Errorf("%w: master data type %q on %s", apperrors.ErrNotSupported, entityType, FamilyBusinessOne)
	}
	return "/b1s/v1/" + resource, nil
}

func (b *b1Connector) SyncMasterData(ctx context.Context, entityType string) (int, error) {
	path, err := b.masterPath(entityType)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := b.client.doJSON(ctx, "sync_master_data", http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return len(resp.Value), nil
}

func (b *b1Connector) GetMasterData(ctx context.Context, entityType, key string) (*MasterRecord, error) {
	path, err := b.masterPath(entityType)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Code string `json:"Code"`
		Name string `json:"Name"`
	}
	if err := b.client.doJSON(ctx, "get_master_data", http.MethodGet, fmt.Sprintf("%s('%s')", path, url.PathEscape(key)), nil, &resp); err != nil {
		return nil, err
	}
	return &MasterRecord{EntityType: entityType, Key: resp.Code, Name: resp.Name}, nil
}

func (b *b1Connector) GetBalance(ctx context.Context, accountCode, fiscalPeriodKey string) (decimal.Decimal, error) {
	var resp struct {
		Balance decimal.Decimal `json:"Balance"`
	}
	path := fmt.Sprintf("/b1s/v1/ChartOfAccounts('%s')?period=%s", url.PathEscape(accountCode), url.QueryEscape(fiscalPeriodKey))
	if err := b.client.doJSON(ctx, "get_balance", http.MethodGet, path, nil, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Balance, nil
}

func (b *b1Connector) GetOpenItems(ctx context.Context, accountType, accountID string) ([]OpenItem, error) {
	var resp struct {
		Value []OpenItem `json:"value"`
	}
	path := fmt.Sprintf("/b1s/v1/OpenItems?accountType=%s&accountID=%s", url.QueryEscape(accountType), url.QueryEscape(accountID))
	if err := b.client.doJSON(ctx, "get_open_items", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (b *b1Connector) GetDocument(ctx context.Context, documentNumber, fiscalYear string) (*domain.ExternalDocument, error) {
	var resp b1JournalResponse
	path := fmt.Sprintf("/b1s/v1/JournalEntries(%s)", url.PathEscape(documentNumber))
	if err := b.client.doJSON(ctx, "get_document", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	postingDate, _ := time.Parse("2006-01-02", resp.ReferenceDate)
	return &domain.ExternalDocument{
		DocumentNumber:  fmt.Sprintf("%d", resp.JdtNum),
		FiscalPeriodKey: fmt.Sprintf("%04d-%02d", postingDate.Year(), int(postingDate.Month())),
		CompanyCode:     b.cfg.CompanyCode,
		DocumentType:    DocTypeJournalEntry,
		PostingDate:     postingDate,
		Status:          domain.DocumentPosted,
	}, nil
}

func (b *b1Connector) ValidateConnection(ctx context.Context) error {
	// A successful login proves both reachability and credentials.
	_, err := b.session.Token(ctx)
	return err
}

func (b *b1Connector) GetSystemInfo(ctx context.Context) (SystemInfo, error) {
	var resp struct {
		Version string `json:"Version"`
	}
	if err := b.client.doJSON(ctx, "get_system_info", http.MethodGet, "/b1s/v1/CompanyService_GetCompanyInfo", nil, &resp); err != nil {
		return SystemInfo{}, err
	}
	return SystemInfo{
		Family:          FamilyBusinessOne,
		Version:         resp.Version,
		CompanyCode:     b.cfg.CompanyCode,
		ChartOfAccounts: b.cfg.ChartOfAccounts,
	}, nil
}
