// Package session establishes the shopper's identity before any data access
// happens. Resolution order: an existing token, then a configured custom
// token, then anonymous sign-in. Establishment fails soft: the manager still
// reports ready so dependent views unblock, and operations that need an
// identity fail with ErrUnauthenticated instead of crashing.
package session

import (
	"errors"
	"log"
	"sync"

	"github.com/Abdi-Suufi/sweetshop/internal/auth"
)

var ErrUnauthenticated = errors.New("no identity established")

// Identity is the opaque handle owning a basket and attributed to orders.
type Identity struct {
	ID   string
	Role string
}

// IsAdmin reports whether the identity may use the admin surface.
func (i Identity) IsAdmin() bool {
	return i.Role == auth.RoleAdmin
}

// Manager resolves and holds the current identity.
type Manager struct {
	tokens *auth.TokenService

	mu      sync.RWMutex
	current *Identity
	ready   bool
	subs    []chan Identity
}

func NewManager(tokens *auth.TokenService) *Manager {
	return &Manager{tokens: tokens}
}

// Establish resolves an identity. existingToken and customToken may be empty;
// with neither, an anonymous identity is minted. The manager becomes ready
// regardless of the outcome.
func (m *Manager) Establish(existingToken, customToken string) (Identity, error) {
	identity, err := m.resolve(existingToken, customToken)

	m.mu.Lock()
	m.ready = true
	if err == nil {
		m.current = &identity
	}
	subs := make([]chan Identity, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if err != nil {
		log.Printf("[Session] Identity establishment failed: %v", err)
		return Identity{}, err
	}

	for _, ch := range subs {
		select {
		case ch <- identity:
		default:
		}
	}
	return identity, nil
}

func (m *Manager) resolve(existingToken, customToken string) (Identity, error) {
	if existingToken != "" {
		claims, err := m.tokens.Validate(existingToken)
		if err == nil {
			return Identity{ID: claims.IdentityID, Role: claims.Role}, nil
		}
		// Fall through: an expired session is replaced, not an error.
	}

	if customToken != "" {
		claims, err := m.tokens.Validate(customToken)
		if err != nil {
			return Identity{}, err
		}
		return Identity{ID: claims.IdentityID, Role: claims.Role}, nil
	}

	identityID, _, err := m.tokens.IssueAnonymous()
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: identityID, Role: auth.RoleCustomer}, nil
}

// Current returns the established identity, if any.
func (m *Manager) Current() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Identity{}, false
	}
	return *m.current, true
}

// Ready reports whether establishment has completed, successfully or not.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Changes returns a channel receiving identity updates, and a cancel func the
// caller must invoke on teardown.
func (m *Manager) Changes() (<-chan Identity, func()) {
	ch := make(chan Identity, 1)

	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub == ch {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// SignOut clears the current identity. The manager stays ready.
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}
