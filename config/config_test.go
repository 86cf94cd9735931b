package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_OverlaysNonZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cex.toml")
	toml := `
ParallelMaxDegree = 8
AutoIncrementNonce = true
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.ParallelMaxDegree)
	require.True(t, cfg.AutoIncrementNonce)
	// Fields left unset in the file keep their defaults.
	require.Equal(t, Default().ParallelBlockSize, cfg.ParallelBlockSize)
	require.Equal(t, Default().JitterOversampleRate, cfg.JitterOversampleRate)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestLoad_RejectsInvalidOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cex.toml")
	require.NoError(t, os.WriteFile(path, []byte("ParallelMaxDegree = -1\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_RejectsOutOfRangeFields(t *testing.T) {
	bad := Default()
	bad.DRBGBufferSize = 1
	require.Error(t, bad.Validate())
}
