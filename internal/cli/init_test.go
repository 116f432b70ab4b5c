package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/config"
	"budget/internal/storage"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "component=app")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUDGET_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("BUDGET_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("BUDGET_TEST_VALUE"))

	LoadEnvFile(path)
	assert.Equal(t, "from-dotenv", os.Getenv("BUDGET_TEST_VALUE"))

	// A missing file is not an error.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig_Override(t *testing.T) {
	t.Setenv("TOKEN_BACKEND", "memory")
	t.Setenv("BUDGET_API_URL", "http://from-env:8000")

	cfg, err := LoadAndValidateConfig("https://flag.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.APIURL)

	_, err = LoadAndValidateConfig("ftp://bad")
	assert.Error(t, err)
}

func TestInitTokenStore(t *testing.T) {
	logger := SetupLogger("error", &bytes.Buffer{})
	ctx := context.Background()

	mem, closeMem, err := InitTokenStore(logger, &config.Config{TokenBackend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryTokenStore{}, mem)
	assert.NoError(t, closeMem())

	cfg := &config.Config{
		TokenBackend: "sqlite",
		APIURL:       "http://localhost:8000",
		StateDBPath:  filepath.Join(t.TempDir(), "state.db"),
	}
	store, closeStore, err := InitTokenStore(logger, cfg)
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, store.Store(ctx, "abc"))
	tok, ok, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}

func TestInitTokenStoreBadOrigin(t *testing.T) {
	logger := SetupLogger("error", &bytes.Buffer{})
	store, closeFn, err := InitTokenStore(logger, &config.Config{
		TokenBackend: "sqlite",
		APIURL:       "not a url",
		StateDBPath:  filepath.Join(t.TempDir(), "state.db"),
	})
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Nil(t, closeFn)
}
