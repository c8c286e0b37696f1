package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dargueta/fat12fs/config"
	"github.com/dargueta/fat12fs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse__Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParse__AllFields(t *testing.T) {
	cfg, err := config.Parse([]byte(`
log_level: debug
log_json: true
strict: true
max_chain_length: 100
case_sensitive: true
`))
	require.NoError(t, err)
	assert.Equal(
		t,
		config.Config{
			LogLevel:       "debug",
			LogJSON:        true,
			Strict:         true,
			MaxChainLength: 100,
			CaseSensitive:  true,
		},
		cfg,
	)

	options := cfg.VolumeOptions()
	assert.True(t, options.Strict)
	assert.True(t, options.CaseSensitive)
	assert.EqualValues(t, 100, options.MaxChainLength)
}

func TestParse__UnknownKey(t *testing.T) {
	_, err := config.Parse([]byte("stirct: true\n"))
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestParse__BadLevel(t *testing.T) {
	_, err := config.Parse([]byte("log_level: loud\n"))
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fat12.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: true\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
}

func TestLoad__Missing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLoad__Directory(t *testing.T) {
	_, err := config.Load(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrIsADirectory)
	assert.NotErrorIs(t, err, errors.ErrNotFound)
}

func TestLoad__PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions aren't enforced for root")
	}

	path := filepath.Join(t.TempDir(), "fat12.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict: true\n"), 0o000))

	_, err := config.Load(path)
	assert.ErrorIs(t, err, errors.ErrPermissionDenied)
	assert.NotErrorIs(t, err, errors.ErrNotFound)
}
