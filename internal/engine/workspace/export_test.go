package workspace

import "time"

// SetNow replaces the clock used for opening times.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
}
