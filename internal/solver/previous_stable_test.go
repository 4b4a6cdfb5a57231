package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vxrun/vx/internal/catalog"
)

func TestPreviousStable_SkipsExcludedAndPrereleaseVersions(t *testing.T) {
	versions := []catalog.VersionInfo{
		{Version: "20.1.0"},
		{Version: "20.0.0"},
		{Version: "19.9.0"},
		{Version: "19.8.5-rc1", Prerelease: true},
		{Version: "18.0.0"},
	}

	got, ok := PreviousStable(versions, map[string]bool{"20.1.0": true})
	assert.True(t, ok)
	assert.Equal(t, "20.0.0", got.Version, "highest remaining stable version, skipping the failed one")

	got, ok = PreviousStable(versions, map[string]bool{"20.1.0": true, "20.0.0": true, "19.9.0": true})
	assert.True(t, ok)
	assert.Equal(t, "18.0.0", got.Version, "rc-suffixed prerelease must be skipped")
}

func TestPreviousStable_ReturnsFalseWhenExhausted(t *testing.T) {
	versions := []catalog.VersionInfo{{Version: "1.0.0"}, {Version: "0.9.0"}}

	_, ok := PreviousStable(versions, map[string]bool{"1.0.0": true, "0.9.0": true})
	assert.False(t, ok)
}
