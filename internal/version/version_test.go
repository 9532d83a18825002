package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	assert.Equal(t, "dev (commit: abc123)", Info{Version: "dev", Commit: "abc123"}.String())
	assert.Equal(t, "1.2.0 (commit: abc123)", Info{Version: "1.2.0", Commit: "abc123"}.String())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, Commit, info.Commit)
	assert.Equal(t, BuildDate, info.BuildDate)
}
