package rdl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Equal(t *testing.T) {
	assert.Empty(t, Diff("a\nb\n", "a\nb\n"))
}

func TestDiff_ChangedLine(t *testing.T) {
	old := "a\nb\nc\n"
	new := "a\nB\nc\n"

	got := Diff(old, new)
	assert.Contains(t, got, "-b\n")
	assert.Contains(t, got, "+B\n")
	assert.Contains(t, got, " a\n")
	assert.Contains(t, got, " c\n")
}

func TestDiff_CollapsesLongContext(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "same")
	}
	old := strings.Join(lines, "\n") + "\nold\n"
	new := strings.Join(lines, "\n") + "\nnew\n"

	got := Diff(old, new)
	assert.Contains(t, got, "@@ 18 unchanged lines @@")
	assert.Contains(t, got, "-old\n")
	assert.Contains(t, got, "+new\n")
}

func TestStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regs.rdl")

	d, err := Stale(path, "x\n")
	require.NoError(t, err)
	assert.Equal(t, "+x\n", d)

	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	d, err = Stale(path, "x\n")
	require.NoError(t, err)
	assert.Empty(t, d)
}
