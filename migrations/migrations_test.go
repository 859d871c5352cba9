package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_EmbedsGooseMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}

	assert.Contains(t, files, "00001_create_exchanges.sql")
}

func TestFS_CreatesExchangesTable(t *testing.T) {
	body, err := fs.ReadFile(FS, "00001_create_exchanges.sql")
	require.NoError(t, err)
	up, down, ok := strings.Cut(string(body), "-- +goose Down")
	require.True(t, ok)
	assert.Contains(t, up, "CREATE TABLE IF NOT EXISTS exchanges")
	assert.Contains(t, down, "DROP TABLE IF EXISTS exchanges")
}
