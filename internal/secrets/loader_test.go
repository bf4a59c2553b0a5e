package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromValue(t *testing.T) {
	got, err := Load(Source{Name: "api key", Value: "  s3cret\n"})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestLoadFileWinsOverValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	got, err := Load(Source{Name: "api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(Source{Name: "api key"})
	assert.ErrorContains(t, err, "api key is not configured")
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := Load(Source{Name: "api key", File: path})
	assert.ErrorContains(t, err, "is empty")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{File: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}
