package lockfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlockTool(t *testing.T) {
	lf := New()
	lf.LockTool("node", LockedTool{Version: "20.0.0", ResolvedFrom: "20", Ecosystem: "node"})

	assert.True(t, lf.IsLocked("node"))
	tool, ok := lf.GetTool("node")
	require.True(t, ok)
	assert.Equal(t, "20.0.0", tool.Version)

	lf.UnlockTool("node")
	assert.False(t, lf.IsLocked("node"))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	lf := New()
	lf.Metadata = Metadata{GeneratedAt: "2026-07-30T00:00:00Z", VXVersion: "0.1.0", Platform: "x86_64-unknown-linux-gnu"}
	lf.LockTool("node", LockedTool{Version: "20.0.0", Source: "nodejs", ResolvedFrom: "20", Ecosystem: "node", Checksum: "sha256:abc"})
	lf.Dependencies["yarn"] = []string{"node"}

	path := filepath.Join(t.TempDir(), "vx.lock")
	require.NoError(t, lf.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.Version)
	assert.Equal(t, "20.0.0", loaded.Tools["node"].Version)
	assert.Equal(t, []string{"node"}, loaded.Dependencies["yarn"])
}

func TestMerge(t *testing.T) {
	base := New()
	base.LockTool("node", LockedTool{Version: "18.0.0"})

	overlay := New()
	overlay.LockTool("node", LockedTool{Version: "20.0.0"})
	overlay.LockTool("yarn", LockedTool{Version: "4.0.0"})

	base.Merge(overlay)
	assert.Equal(t, "20.0.0", base.Tools["node"].Version)
	assert.Equal(t, "4.0.0", base.Tools["yarn"].Version)
}

func TestCheckConsistency(t *testing.T) {
	lf := New()
	lf.LockTool("node", LockedTool{Version: "20.0.0", ResolvedFrom: "20"})
	lf.LockTool("extra-tool", LockedTool{Version: "1.0.0", ResolvedFrom: "latest"})

	requested := map[string]string{
		"node": "20",
		"yarn": "latest",
	}

	inconsistencies := lf.CheckConsistency(requested)

	var kinds []InconsistencyKind
	for _, inc := range inconsistencies {
		kinds = append(kinds, inc.Kind)
	}
	assert.Contains(t, kinds, InconsistencyMissingInLock)
	assert.Contains(t, kinds, InconsistencyExtraInLock)
}

func TestCheckConsistency_VersionMismatch(t *testing.T) {
	lf := New()
	lf.LockTool("node", LockedTool{Version: "18.0.0", ResolvedFrom: "18"})

	inconsistencies := lf.CheckConsistency(map[string]string{"node": "20"})
	require.Len(t, inconsistencies, 1)
	assert.Equal(t, InconsistencyVersionMismatch, inconsistencies[0].Kind)
}
