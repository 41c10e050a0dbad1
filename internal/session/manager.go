// Package session tracks which account each user currently has selected.
// The selection is presentation state, not persisted: it lives in memory and
// is re-derived from the account listing whenever it goes stale.
package session

import "sync"

// Manager holds the per-owner account selection. All methods are safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	selected map[string]string
}

func NewManager() *Manager {
	return &Manager{selected: make(map[string]string)}
}

// Resolve returns the owner's effective selection given the current account
// names in listing order. A selection that is still listed stands; otherwise
// the first listed account becomes the selection; with no accounts at all
// the result is the empty "no account selected" state. The resolved value is
// stored so subsequent calls are stable.
func (m *Manager) Resolve(owner string, names []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(names) == 0 {
		delete(m.selected, owner)
		return ""
	}

	current := m.selected[owner]
	for _, name := range names {
		if name == current {
			return current
		}
	}

	m.selected[owner] = names[0]
	return names[0]
}

// Select records an explicit selection. The caller verifies the name exists.
func (m *Manager) Select(owner, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected[owner] = name
}

// Rename moves the selection along with an account rename, so the UI never
// observes a selection pointing at a name that no longer exists. A no-op if
// the renamed account was not selected.
func (m *Manager) Rename(owner, oldName, newName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected[owner] == oldName {
		m.selected[owner] = newName
	}
}

// Forget drops the selection only if it points at the given name, used when
// that account is deleted. Selections of other accounts are untouched.
func (m *Manager) Forget(owner, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected[owner] == name {
		delete(m.selected, owner)
	}
}

// Clear drops the owner's selection; Resolve will fall back to the first
// listed account on the next read.
func (m *Manager) Clear(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.selected, owner)
}
