package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	in := strings.NewReader("gemini\ngm-key\ntg-token\n")
	var out bytes.Buffer

	require.NoError(t, run(in, &out, path))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"AI_PROVIDER":        "gemini",
		"GEMINI_API_KEY":     "gm-key",
		"TELEGRAM_BOT_TOKEN": "tg-token",
	}, env)
	assert.Contains(t, out.String(), "Configuration saved to")
}

func TestRun_DefaultsToCohere(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")

	require.NoError(t, run(strings.NewReader("\nco-key\ntg-token\n"), &bytes.Buffer{}, path))

	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "cohere", env["AI_PROVIDER"])
	assert.Equal(t, "co-key", env["COHERE_API_KEY"])
}

func TestRun_RejectsEmptyValues(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty api key", input: "cohere\n\ntg-token\n"},
		{name: "empty telegram token", input: "cohere\nco-key\n\n"},
		{name: "unknown provider", input: "llama\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.env")

			err := run(strings.NewReader(tc.input), &bytes.Buffer{}, path)
			assert.Error(t, err)
			assert.NoFileExists(t, path)
		})
	}
}

func TestRun_KeepsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("TELEGRAM_BOT_TOKEN=old\n"), 0o600))

	err := run(strings.NewReader("n\n"), &bytes.Buffer{}, path)
	assert.ErrorIs(t, err, errAborted)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TELEGRAM_BOT_TOKEN=old\n", string(data))

	require.NoError(t, run(strings.NewReader("y\ncohere\nnew-key\nnew-token\n"), &bytes.Buffer{}, path))
	env, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "new-token", env["TELEGRAM_BOT_TOKEN"])
}
