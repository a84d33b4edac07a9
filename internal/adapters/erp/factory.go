package erp

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrFamilyNotSupported is returned when a tenant is configured with a
// system family that has no implementation. Fail fast, never fall through
// silently.
var ErrFamilyNotSupported = errors.New("external system family not supported")

// ConfigProvider resolves the connector configuration for a tenant.
type ConfigProvider interface {
	ConnectorConfig(ctx context.Context, tenantID string) (Config, error)
}

// StaticConfigProvider serves connector configs from a fixed map, keyed by
// tenant id.
type StaticConfigProvider map[string]Config

func (p StaticConfigProvider) ConnectorConfig(_ context.Context, tenantID string) (Config, error) {
	cfg, ok := p[tenantID]
	if !ok {
		return Config{}, fmt.Errorf("no connector configured for tenant %s", tenantID)
	}
	return cfg, nil
}

// Factory lazily constructs, connection-validates and caches one live
// connector per tenant for the process lifetime. The cache is the only
// long-lived shared mutable state in this package; access is synchronized
// because concurrent requests for the same tenant race during cold start.
type Factory struct {
	mu         sync.Mutex
	configs    ConfigProvider
	connectors map[string]Connector
}

// NewFactory creates a connector factory over the given config provider.
func NewFactory(configs ConfigProvider) *Factory {
	return &Factory{
		configs:    configs,
		connectors: make(map[string]Connector),
	}
}

// Connector returns the live connector for the tenant, constructing and
// validating it on first use.
func (f *Factory) Connector(ctx context.Context, tenantID string) (Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conn, ok := f.connectors[tenantID]; ok {
		return conn, nil
	}

	cfg, err := f.configs.ConnectorConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	conn, err := newConnector(cfg)
	if err != nil {
		return nil, err
	}

	// Validate before caching so a dead endpoint fails fast here rather
	// than on the first posting. The connector's own timeout bounds this.
	if err := conn.ValidateConnection(ctx); err != nil {
		return nil, fmt.Errorf("connection validation failed for tenant %s: %w", tenantID, err)
	}

	f.connectors[tenantID] = conn
	return conn, nil
}

// Invalidate drops the cached connector for a tenant; the next request
// reconstructs and revalidates it.
func (f *Factory) Invalidate(tenantID string) {
	f.mu.Lock()
	delete(f.connectors, tenantID)
	f.mu.Unlock()
}

// newConnector dispatches on the system family.
func newConnector(cfg Config) (Connector, error) {
	switch cfg.Family {
	case FamilyS4Cloud:
		return NewS4Cloud(cfg)
	case FamilyS4OnPrem:
		return NewS4OnPrem(cfg)
	case FamilyBusinessOne:
		return NewBusinessOne(cfg)
	case FamilyECCLegacy:
		return nil, fmt.Errorf("%w: %s", ErrFamilyNotSupported, cfg.Family)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFamilyNotSupported, cfg.Family)
	}
}
