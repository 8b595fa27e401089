package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionedKey(t *testing.T) {
	assert.Equal(t, "profile:pv1.0_tv1.0:react", VersionedKey("profile", "react"))
	assert.Equal(t, "a:pv1.0_tv1.0:b:c", VersionedKey("a", "b", "c"))
}

func TestVersionedKeyChangesWithVersions(t *testing.T) {
	before := VersionedKey("profile", "basic")

	old := ComponentVersions.Prompts
	ComponentVersions.Prompts = "v2.0"
	defer func() { ComponentVersions.Prompts = old }()

	assert.NotEqual(t, before, VersionedKey("profile", "basic"))
	assert.Equal(t, "pv2.0_tv1.0", Tag())
}
