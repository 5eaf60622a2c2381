package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	want := Defaults()
	assert.Equal(t, &want, cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "ledgerd.toml", `
data_dir = "/var/lib/ledgerd"
log_level = "debug"

[api]
addr = "0.0.0.0:9000"
cors = "https://example.com"
metrics = false

[ticker]
interval = "1m"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/ledgerd", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.Addr)
	assert.Equal(t, "https://example.com", cfg.API.CORS)
	assert.False(t, cfg.API.Metrics)
	// not in the file
	assert.True(t, cfg.API.Events)
	assert.Equal(t, 16, cfg.Store.ReadCacheMB)
	assert.Equal(t, time.Minute, cfg.Ticker.Interval)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeFile(t, "ledgerd.toml", `
data_dir = "/from/file"
[api]
addr = "localhost:1"
`)
	t.Setenv("LEDGERD_DATA_DIR", "/from/env")
	t.Setenv("LEDGERD_API_EVENTS", "false")
	t.Setenv("LEDGERD_STORE_READ_CACHE_MB", "64")
	t.Setenv("LEDGERD_TICKER_INTERVAL", "250ms")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DataDir)
	assert.Equal(t, "localhost:1", cfg.API.Addr)
	assert.False(t, cfg.API.Events)
	assert.Equal(t, 64, cfg.Store.ReadCacheMB)
	assert.Equal(t, 250*time.Millisecond, cfg.Ticker.Interval)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]struct {
		file    string
		env     map[string]string
		wantErr *errors.Error
	}{
		"malformed file": {
			file:    `data_dir = `,
			wantErr: errors.ErrInvalidInput,
		},
		"unknown log level": {
			file:    `log_level = "loud"`,
			wantErr: errors.ErrInvalidInput,
		},
		"empty api address": {
			file:    "[api]\naddr = \"\"",
			wantErr: errors.ErrEmpty,
		},
		"negative interval": {
			file:    "[ticker]\ninterval = \"-1s\"",
			wantErr: errors.ErrInvalidInput,
		},
		"malformed env integer": {
			env:     map[string]string{"LEDGERD_STORE_WRITE_BUFFER_MB": "lots"},
			wantErr: errors.ErrInvalidInput,
		},
		"malformed env duration": {
			env:     map[string]string{"LEDGERD_TICKER_INTERVAL": "soon"},
			wantErr: errors.ErrInvalidInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, "ledgerd.toml", tc.file)
			_, err := LoadConfig(path)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %s error, got %+v", tc.wantErr, err)
			}
		})
	}
}
