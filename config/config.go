// Package config loads the YAML settings file shared by the command-line tool
// and anything else that opens volumes on a user's behalf.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/dargueta/fat12fs/logging"
	"gopkg.in/yaml.v3"
)

// DefaultLogLevel is the log level used when the configuration doesn't set one.
const DefaultLogLevel = "info"

// Config is the on-disk configuration file format.
type Config struct {
	// LogLevel is one of zap's level names: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// LogJSON switches log output from the human console format to JSON.
	LogJSON bool `yaml:"log_json"`

	// Strict enables the additional boot sector checks done when opening a
	// volume.
	Strict bool `yaml:"strict"`
	// MaxChainLength caps how many clusters a single chain walk may visit. Zero
	// means use the number of clusters on the volume.
	MaxChainLength uint32 `yaml:"max_chain_length"`
	// CaseSensitive turns off case folding when matching path components.
	CaseSensitive bool `yaml:"case_sensitive"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{LogLevel: DefaultLogLevel}
}

// Parse decodes a configuration from YAML. Keys not given keep their default
// values; unknown keys are an error so that typos don't go unnoticed.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && err != io.EOF {
		return Config{}, errors.ErrInvalidArgument.Wrap(err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at `path`.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.FromHostError(err)
	}
	return Parse(data)
}

// Validate checks fields whose valid values can't be expressed by their types.
func (c Config) Validate() error {
	_, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.ErrInvalidArgument.Wrap(err)
	}
	return nil
}

// VolumeOptions returns the subset of the configuration that affects how a
// volume is opened and searched.
func (c Config) VolumeOptions() fat12.Options {
	return fat12.Options{
		Strict:         c.Strict,
		MaxChainLength: c.MaxChainLength,
		CaseSensitive:  c.CaseSensitive,
	}
}
