package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"biliguard/pkg/logger"
)

// Snapshot is the externally visible state of the scrape worker. Readers get
// a copy, never shared mutable state.
type Snapshot struct {
	AccountName      string    `json:"account_name"`
	LastRefreshedAt  time.Time `json:"last_refreshed_at"`
	Passes           int64     `json:"passes"`
	ItemsSeen        int64     `json:"items_seen"`
	CommentsSeen     int64     `json:"comments_seen"`
	RemovalsDetected int64     `json:"removals_detected"`
	// RecentItems counts items of the last pass created after the configured
	// cutoff; legacy aggregate reports exclude them
	RecentItems int `json:"recent_items"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// Manager owns the worker status under a single-writer discipline. The
// scrape loop is the only mutator; everyone else reads snapshots.
type Manager struct {
	path string
	snap Snapshot
	log  logger.Logger
	mu   sync.RWMutex
}

// NewManager creates a status manager persisting to path. An existing
// snapshot file is loaded so lastRefreshedAt survives restarts; a missing or
// unreadable file just starts fresh.
func NewManager(path string) *Manager {
	m := &Manager{
		path: path,
		log:  logger.GetLogger(),
	}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var snap Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				m.snap = snap
				m.log.InfoWithFields("status snapshot loaded", map[string]interface{}{
					"path":              path,
					"last_refreshed_at": snap.LastRefreshedAt,
					"passes":            snap.Passes,
				})
			}
		}
	}

	return m
}

// Snapshot returns a copy of the current status
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// SetAccountName records the monitored account's display name
func (m *Manager) SetAccountName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.AccountName = name
	m.save()
}

// CompletePass records one finished scrape pass and refreshes the
// lastRefreshedAt timestamp
func (m *Manager) CompletePass(items int, recentItems int, comments, removals int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap.Passes++
	m.snap.ItemsSeen += int64(items)
	m.snap.CommentsSeen += comments
	m.snap.RemovalsDetected += removals
	m.snap.RecentItems = recentItems
	m.snap.LastRefreshedAt = time.Now().UTC()
	m.snap.Version = 1
	m.save()
}

// save persists the snapshot atomically via a temp file rename.
// Callers must hold m.mu.
func (m *Manager) save() {
	if m.path == "" {
		return
	}

	m.snap.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(m.snap, "", "  ")
	if err != nil {
		m.log.WithError(err).Warn("failed to marshal status snapshot")
		return
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.log.WithError(err).Warn("failed to create status directory")
		return
	}

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		m.log.WithError(err).Warn("failed to write status snapshot")
		return
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		m.log.WithError(err).Warn(fmt.Sprintf("failed to replace status snapshot at %s", m.path))
	}
}
