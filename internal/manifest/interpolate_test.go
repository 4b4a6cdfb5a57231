package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	vars := Vars{"name": "node", "version": "20.18.1", "platform": "linux-x86_64", "ext": ""}

	out, err := Interpolate("node-v{version}-{platform}/bin/{name}{ext}", vars)
	require.NoError(t, err)
	assert.Equal(t, "node-v20.18.1-linux-x86_64/bin/node", out)
}

func TestInterpolateUnknownVariable(t *testing.T) {
	_, err := Interpolate("{unknown}", Vars{})
	require.Error(t, err)
}

func TestInterpolateUnterminated(t *testing.T) {
	_, err := Interpolate("{version", Vars{"version": "1"})
	require.Error(t, err)
}

func TestVarsMergeDoesNotMutateBase(t *testing.T) {
	base := Vars{"a": "1"}
	merged := base.Merge(Vars{"a": "2", "b": "3"})

	assert.Equal(t, "1", base["a"])
	assert.Equal(t, "2", merged["a"])
	assert.Equal(t, "3", merged["b"])
}
