// In file: internal/version/version.go

// Package version centralizes the versioning for the logical components whose
// behaviour is being measured.
//
// Persisted statistics are keyed by these strings. Changing a system prompt or a
// tool and bumping the matching version starts a fresh set of counters, so runs
// of the old and new behaviour are never averaged together.
package version

import (
	"fmt"
	"strings"
)

// ComponentVersions holds the version strings for the parts of the agents that
// affect their answers. Increment one before shipping a change to that part.
var ComponentVersions = struct {
	// Prompts covers the three system prompts in internal/agent.
	Prompts string

	// Tools covers tool descriptors and tool behaviour in internal/tools.
	Tools string
}{
	Prompts: "v1.0",
	Tools:   "v1.0",
}

// Tag returns the compact representation of all component versions,
// e.g. "pv1.0_tv1.0".
func Tag() string {
	return fmt.Sprintf("pv%s_tv%s", ComponentVersions.Prompts, ComponentVersions.Tools)
}

// VersionedKey builds a storage key that changes whenever a component version
// changes.
//
// Example output: "profile:pv1.0_tv1.0:react"
func VersionedKey(prefix string, parts ...string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, Tag(), strings.Join(parts, ":"))
}
