package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "trace_path,expected_outcome\ndata/trace_good.json,good\ndata/trace_unsafe.json,unsafe\n")

	rows, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "data/trace_good.json", rows[0]["trace_path"])
	assert.Equal(t, "unsafe", rows[1]["expected_outcome"])
}

func TestLoadCSV_ColumnCountMismatch(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n3\n")

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestLoadCSV_Empty(t *testing.T) {
	path := writeCSV(t, "")

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header row")
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestRowRequire(t *testing.T) {
	row := Row{"trace_path": "x.json", "note": ""}

	v, err := row.Require("trace_path")
	require.NoError(t, err)
	assert.Equal(t, "x.json", v)

	_, err = row.Require("note")
	assert.Error(t, err)

	_, err = row.Require("absent")
	assert.Error(t, err)
}
