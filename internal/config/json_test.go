package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"data_dir":               "/srv/photovault",
		"blob_backend":           "s3",
		"api_key":                "sk-from-file",
		"classifier_timeout_sec": 30,
		"unlock_ttl_min":         5,
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJSON(cfg)

		assert.Equal(t, "/srv/photovault", cfg.DataDir)
		assert.Equal(t, "s3", cfg.BlobBackend)
		assert.Equal(t, "sk-from-file", cfg.APIKey)
		assert.Equal(t, 30*time.Second, cfg.ClassifierTimeout)
		assert.Equal(t, 5*time.Minute, cfg.UnlockTTL)
	})

	t.Run("absent fields keep existing values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"api_key": "sk-only",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{DataDir: "/keep/me", APIModel: "keep-model"}
		parseJSON(cfg)

		assert.Equal(t, "/keep/me", cfg.DataDir)
		assert.Equal(t, "keep-model", cfg.APIModel)
		assert.Equal(t, "sk-only", cfg.APIKey)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{DataDir: "/defaults", UnlockTTL: 42 * time.Minute}
		parseJSON(cfg)

		assert.Equal(t, "/defaults", cfg.DataDir)
		assert.Equal(t, 42*time.Minute, cfg.UnlockTTL)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJSON(cfg) })
	})
}
