// multiaccount.go
package cosmorm

import (
	"context"
	"fmt"
	"sync"

	"github.com/pay-theory/cosmorm/pkg/core"
	"github.com/pay-theory/cosmorm/pkg/session"
)

// MultiAccount routes requests to per-partner Cosmos DB accounts
type MultiAccount struct {
	base     core.Container
	accounts map[string]session.Config
	cache    *sync.Map // partnerID -> core.Container
	mu       sync.RWMutex
}

// NewMultiAccount creates a router. base serves requests without a partner
// and may be nil when every request carries one.
func NewMultiAccount(base core.Container, accounts map[string]session.Config) *MultiAccount {
	copied := make(map[string]session.Config, len(accounts))
	for id, cfg := range accounts {
		copied[id] = cfg
	}
	return &MultiAccount{
		base:     base,
		accounts: copied,
		cache:    &sync.Map{},
	}
}

// Partner returns the container for the specified partner. An empty partner
// id returns the base container. Containers are opened on first use and cached.
func (m *MultiAccount) Partner(partnerID string) (core.Container, error) {
	if partnerID == "" {
		if m.base == nil {
			return nil, fmt.Errorf("no base container configured")
		}
		return m.base, nil
	}

	if cached, ok := m.cache.Load(partnerID); ok {
		return cached.(core.Container), nil
	}

	m.mu.RLock()
	account, ok := m.accounts[partnerID]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown partner: %s", partnerID)
	}

	container, err := openContainer(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to open container for partner %s: %w", partnerID, err)
	}

	actual, _ := m.cache.LoadOrStore(partnerID, container)
	return actual.(core.Container), nil
}

// AddPartner dynamically adds or replaces a partner configuration
func (m *MultiAccount) AddPartner(partnerID string, cfg session.Config) {
	m.mu.Lock()
	m.accounts[partnerID] = cfg
	m.mu.Unlock()

	m.cache.Delete(partnerID)
}

// RemovePartner removes a partner and clears its cached container
func (m *MultiAccount) RemovePartner(partnerID string) {
	m.mu.Lock()
	delete(m.accounts, partnerID)
	m.mu.Unlock()

	m.cache.Delete(partnerID)
}

// ForPartner builds a repository over the container of the partner carried by ctx
func ForPartner[T any](ctx context.Context, m *MultiAccount, cfg Config) (*Repository[T], error) {
	container, err := m.Partner(GetPartnerFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return New[T](container, cfg).WithLambdaTimeout(ctx), nil
}

// PartnerContext adds partner information to context for routing and logging
func PartnerContext(ctx context.Context, partnerID string) context.Context {
	return context.WithValue(ctx, partnerContextKey{}, partnerID)
}

// GetPartnerFromContext retrieves partner ID from context
func GetPartnerFromContext(ctx context.Context) string {
	if partnerID, ok := ctx.Value(partnerContextKey{}).(string); ok {
		return partnerID
	}
	return ""
}

type partnerContextKey struct{}
