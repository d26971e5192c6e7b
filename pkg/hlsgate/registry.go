package hlsgate

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Tenant pairs one account's credentials with the presigner built for its
// storage endpoint.
type Tenant struct {
	ID          string
	Credentials Credentials
	Signer      Signer
}

// Registry is the account table: built once at startup, immutable afterwards,
// safe for unsynchronized concurrent reads. Presigners are constructed
// eagerly here so the request path never touches AWS configuration.
type Registry struct {
	tenants map[string]*Tenant
}

// ParseAccounts decodes the accounts document: a JSON object keyed by account
// identifier with credential entries as values.
func ParseAccounts(raw []byte) (map[string]Credentials, error) {
	var entries map[string]Credentials
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return entries, nil
}

// NewRegistry builds the registry from decoded credential entries. Any
// incomplete entry fails the whole load; a half-configured tenant must never
// serve requests.
func NewRegistry(entries map[string]Credentials, storageDomain string) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no accounts configured", ErrConfiguration)
	}

	tenants := make(map[string]*Tenant, len(entries))
	for id, creds := range entries {
		if err := creds.Validate(); err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrConfiguration, id, err)
		}
		signer, err := NewSigner(SignerConfig{
			Credentials:   creds,
			StorageDomain: storageDomain,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrConfiguration, id, err)
		}
		tenants[id] = &Tenant{ID: id, Credentials: creds, Signer: signer}
	}

	return &Registry{tenants: tenants}, nil
}

// Lookup returns the tenant for an account identifier. A miss is a client
// error, not a server fault.
func (r *Registry) Lookup(account string) (*Tenant, bool) {
	t, ok := r.tenants[account]
	return t, ok
}

// Accounts returns the configured account identifiers in sorted order.
func (r *Registry) Accounts() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
