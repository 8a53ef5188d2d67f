package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/errs"
)

func TestParseRequiresBoardIDAndChannels(t *testing.T) {
	_, err := Parse([]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestParseSucceedsWithRequiredFlags(t *testing.T) {
	opts, err := Parse([]string{"-b", "42", "-c", "Cz,Pz"})
	require.NoError(t, err)
	assert.Equal(t, 42, opts.BoardID)
	assert.Equal(t, []string{"Cz", "Pz"}, opts.Channels)
	assert.Equal(t, 250, opts.SamplesPerEpoch)
}

func TestParseRejectsPartialInfluxCredentials(t *testing.T) {
	_, err := Parse([]string{"-b", "1", "-c", "Cz", "--influx_url", "http://db"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestParseRejectsMismatchedSSLFlags(t *testing.T) {
	_, err := Parse([]string{"-b", "1", "-c", "Cz", "--ssl_cert", "cert.pem"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}

func TestParseMergesYAMLFileUnderExplicitFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	contents := "board_id: 7\nchannels:\n  - Fp1\n  - Fp2\noutput_dir: /data\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := Parse([]string{"-c", "Cz", "--config", path})
	require.NoError(t, err)

	// board_id came from the file (not passed on the flag line).
	assert.Equal(t, 7, opts.BoardID)
	// channels was passed explicitly, so the file's value is ignored.
	assert.Equal(t, []string{"Cz"}, opts.Channels)
	assert.Equal(t, "/data", opts.OutputDir)
}
