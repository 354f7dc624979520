package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	Version, BuildDate, Commit = "1.2.3", "2026-10-15", "abc123"
	t.Cleanup(func() { Version, BuildDate, Commit = "N/A", "N/A", "N/A" })

	var buf bytes.Buffer
	PrintBuildData(&buf)
	assert.Equal(t, "Build version: 1.2.3\nBuild date: 2026-10-15\nBuild commit: abc123\n", buf.String())
}
