package status

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCompletePass(t *testing.T) {
	m := NewManager("")

	m.SetAccountName("tester")
	m.CompletePass(10, 2, 500, 3)
	m.CompletePass(8, 1, 400, 0)

	snap := m.Snapshot()
	assert.Equal(t, "tester", snap.AccountName)
	assert.Equal(t, int64(2), snap.Passes)
	assert.Equal(t, int64(18), snap.ItemsSeen)
	assert.Equal(t, int64(900), snap.CommentsSeen)
	assert.Equal(t, int64(3), snap.RemovalsDetected)
	assert.Equal(t, 1, snap.RecentItems, "recent items reflect the latest pass only")
	assert.False(t, snap.LastRefreshedAt.IsZero())
}

func TestManagerPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status", "snapshot.json")

	m := NewManager(path)
	m.SetAccountName("tester")
	m.CompletePass(5, 0, 100, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk Snapshot
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, int64(1), onDisk.Passes)
	assert.Equal(t, "tester", onDisk.AccountName)

	// A fresh manager resumes from the persisted snapshot
	reloaded := NewManager(path)
	snap := reloaded.Snapshot()
	assert.Equal(t, int64(1), snap.Passes)
	assert.Equal(t, int64(100), snap.CommentsSeen)
	assert.Equal(t, m.Snapshot().LastRefreshedAt.Unix(), snap.LastRefreshedAt.Unix())
}

func TestManagerIgnoresCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	m := NewManager(path)
	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap.Passes, "corrupt snapshots start fresh")
}
