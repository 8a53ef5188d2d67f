package sideband

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/features"
)

func TestOpenWritesHeaderAndSubmitAppendsRows(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	batch := features.EpochBatch{
		EpochEndMs: 1000,
		Channels: []features.PerChannel{
			{ChannelName: "Fp1", OverThresholdIndices: []int{1, 2}},
		},
	}

	require.NoError(t, s.Submit(context.Background(), batch))
	s.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".brainflow.csv"))

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "epochEndMs")
	assert.Contains(t, lines[1], "Fp1")
}
