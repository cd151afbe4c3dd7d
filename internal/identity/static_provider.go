package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// StaticProvider keeps identities in memory for local development and tests.
// Ids are snowflake-issued so they stay unique across restarts of a single
// node, matching the provider-is-the-id-authority contract.
type StaticProvider struct {
	node        *snowflake.Node
	autoconfirm bool

	mu       sync.Mutex
	accounts map[string]string // email -> id
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider builds an in-process provider. When autoconfirm is false
// every signup returns a pending confirmation outcome.
func NewStaticProvider(node *snowflake.Node, autoconfirm bool) *StaticProvider {
	return &StaticProvider{
		node:        node,
		autoconfirm: autoconfirm,
		accounts:    make(map[string]string),
	}
}

func (p *StaticProvider) Signup(_ context.Context, params SignupParams) (Signup, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return Signup{}, ErrConflict
	}

	id := p.node.Generate().String()
	p.accounts[email] = id

	if p.autoconfirm {
		return Signup{ID: id, Confirmation: ActiveSession{AccessToken: "dev-" + id, ExpiresIn: 3600}}, nil
	}
	return Signup{ID: id, Confirmation: PendingConfirmation{}}, nil
}

func (p *StaticProvider) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for email, accountID := range p.accounts {
		if accountID == id {
			delete(p.accounts, email)
			return nil
		}
	}
	return nil
}
