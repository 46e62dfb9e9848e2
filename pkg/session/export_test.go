package session

// ActiveLocks reports how many per-session locks are held or referenced.
func ActiveLocks(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
