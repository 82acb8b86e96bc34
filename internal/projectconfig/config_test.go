package projectconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultDataDir, cfg.Paths.Data)
	assert.Equal(t, DefaultMemoryPath, cfg.Paths.Memory)
	assert.Equal(t, DefaultOracleModel, cfg.Oracle.Model)
	assert.Equal(t, DefaultOracleMaxTokens, cfg.Oracle.MaxTokens)
	assert.Equal(t, DefaultQdrantCollection, cfg.Qdrant.Collection)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	require.NotNil(t, cfg.Qdrant.Enabled)
	assert.False(t, *cfg.Qdrant.Enabled)
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_MergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
paths:
  memory: custom/mem.json
oracle:
  model: claude-opus-4-20250514
qdrant:
  enabled: true
  url: http://localhost:6333
server:
  port: 9999
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mentor.yaml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, "custom/mem.json", cfg.Paths.Memory)
	assert.Equal(t, "claude-opus-4-20250514", cfg.Oracle.Model)
	assert.True(t, *cfg.Qdrant.Enabled)
	assert.Equal(t, "http://localhost:6333", cfg.Qdrant.URL)
	assert.Equal(t, 9999, cfg.Server.Port)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultDataDir, cfg.Paths.Data)
	assert.Equal(t, DefaultOracleMaxTokens, cfg.Oracle.MaxTokens)
	assert.Equal(t, DefaultQdrantCollection, cfg.Qdrant.Collection)
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".mentor.yaml"),
		[]byte("server:\n  port: 7777\n"), 0644))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mentor.yaml"),
		[]byte("paths: [not a map"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing .mentor.yaml")
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		require.NoError(t, LoadEnv(t.TempDir()))
	})

	t.Run("loads variables", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("MENTOR_TEST_ENV_VAR=from_dotenv\n"), 0644))
		t.Setenv("MENTOR_TEST_ENV_VAR", "") // register cleanup
		os.Unsetenv("MENTOR_TEST_ENV_VAR")  //nolint:errcheck

		require.NoError(t, LoadEnv(dir))
		assert.Equal(t, "from_dotenv", os.Getenv("MENTOR_TEST_ENV_VAR"))
	})

	t.Run("existing environment wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("MENTOR_TEST_ENV_VAR2=from_dotenv\n"), 0644))
		t.Setenv("MENTOR_TEST_ENV_VAR2", "from_environment")

		require.NoError(t, LoadEnv(dir))
		assert.Equal(t, "from_environment", os.Getenv("MENTOR_TEST_ENV_VAR2"))
	})
}
