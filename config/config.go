// Package config loads the engine's tunables from a TOML file, following
// the same tomlConfig-then-validated-Conf two-stage pattern the reference
// client/server tooling used for its own connection and key settings:
// decode into a raw string-keyed struct, then validate and convert into
// the typed EngineConfig callers actually use.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/kryptid/cex/cexerr"
	"github.com/kryptid/cex/drbg"
)

// tomlConfig mirrors the on-disk TOML shape; every field is optional and
// falls back to Default() when empty or zero.
type tomlConfig struct {
	ParallelMaxDegree    int
	ParallelBlockSize    int
	JitterOversampleRate int
	DRBGBufferSize       int
	AutoIncrementNonce   bool
	PreserveAAD          bool
}

// EngineConfig is the validated, in-memory configuration consumed by the
// engine's constructors.
type EngineConfig struct {
	ParallelMaxDegree    int
	ParallelBlockSize    int
	JitterOversampleRate int
	DRBGBufferSize       int
	AutoIncrementNonce   bool
	PreserveAAD          bool
}

// Default returns the engine's built-in configuration, used whenever no
// config file is present or a field is left unset.
func Default() EngineConfig {
	return EngineConfig{
		ParallelMaxDegree:    4,
		ParallelBlockSize:    64 * 1024,
		JitterOversampleRate: 4,
		DRBGBufferSize:       drbg.MinBufferSize * 16,
		AutoIncrementNonce:   false,
		PreserveAAD:          false,
	}
}

// Load reads and decodes a TOML configuration file at path (which may use
// a leading "~" for the user's home directory), overlaying non-zero
// fields onto Default().
func Load(path string) (EngineConfig, error) {
	cfg := Default()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", cexerr.ErrInvalidParameter, err)
	}
	data, err := ioutil.ReadFile(expanded)
	if err != nil {
		return cfg, err
	}

	var raw tomlConfig
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return cfg, fmt.Errorf("%w: %v", cexerr.ErrInvalidParameter, err)
	}

	if raw.ParallelMaxDegree != 0 {
		cfg.ParallelMaxDegree = raw.ParallelMaxDegree
	}
	if raw.ParallelBlockSize != 0 {
		cfg.ParallelBlockSize = raw.ParallelBlockSize
	}
	if raw.JitterOversampleRate != 0 {
		cfg.JitterOversampleRate = raw.JitterOversampleRate
	}
	if raw.DRBGBufferSize != 0 {
		cfg.DRBGBufferSize = raw.DRBGBufferSize
	}
	cfg.AutoIncrementNonce = raw.AutoIncrementNonce
	cfg.PreserveAAD = raw.PreserveAAD

	return cfg, cfg.Validate()
}

// Validate checks every field is within its legal engine-wide range.
func (c EngineConfig) Validate() error {
	if c.ParallelMaxDegree < 1 {
		return fmt.Errorf("%w: ParallelMaxDegree must be >= 1, got %d", cexerr.ErrInvalidParameter, c.ParallelMaxDegree)
	}
	if c.ParallelBlockSize < 1 {
		return fmt.Errorf("%w: ParallelBlockSize must be >= 1, got %d", cexerr.ErrInvalidParameter, c.ParallelBlockSize)
	}
	if c.JitterOversampleRate < 1 {
		return fmt.Errorf("%w: JitterOversampleRate must be >= 1, got %d", cexerr.ErrInvalidParameter, c.JitterOversampleRate)
	}
	if c.DRBGBufferSize < drbg.MinBufferSize {
		return fmt.Errorf("%w: DRBGBufferSize must be >= %d, got %d", cexerr.ErrInvalidParameter, drbg.MinBufferSize, c.DRBGBufferSize)
	}
	return nil
}
