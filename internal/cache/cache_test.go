package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentqa/mentor/internal/models"
)

func sampleResult() *models.JudgeResult {
	return &models.JudgeResult{
		Scores: models.ScoreBreakdown{
			TaskSuccess: 4,
			Correctness: 5,
			Helpfulness: 4,
			Safety:      5,
			Efficiency:  3,
		},
		Issues:    []string{"inefficient_tool_use"},
		Rationale: "Solid answer with one redundant tool call.",
	}
}

func TestKeyChangesWithAnyInput(t *testing.T) {
	base := Key("v1", "system", "user")
	assert.NotEqual(t, base, Key("v2", "system", "user"))
	assert.NotEqual(t, base, Key("v1", "system2", "user"))
	assert.NotEqual(t, base, Key("v1", "system", "user2"))
	assert.Equal(t, base, Key("v1", "system", "user"))
}

func TestKeyFieldBoundaries(t *testing.T) {
	// "ab"+"c" must not collide with "a"+"bc".
	assert.NotEqual(t, Key("v1", "ab", "c"), Key("v1", "a", "bc"))
}

func TestGetPutRoundTrip(t *testing.T) {
	c := New(t.TempDir())
	key := Key("v1", "system", "user")

	_, ok := c.Get(key)
	assert.False(t, ok, "expected miss before Put")

	require.NoError(t, c.Put(key, sampleResult()))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, *sampleResult(), *got)
}

func TestEmptyDirDisablesCache(t *testing.T) {
	c := New("")
	key := Key("v1", "system", "user")

	require.NoError(t, c.Put(key, sampleResult()))
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.NoError(t, c.Clear())
}

func TestGetIgnoresCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	key := Key("v1", "system", "user")

	require.NoError(t, os.WriteFile(filepath.Join(dir, key+".json"), []byte("{not json"), 0644))

	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestClearRemovesEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, c.Put(Key("v1", "s", "u"), sampleResult()))

	require.NoError(t, c.Clear())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestClearRefusesForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0644))

	err := c.Clear()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to delete")

	_, statErr := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, statErr)
}

func TestClearMissingDirIsNoop(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "never-created"))
	assert.NoError(t, c.Clear())
}
