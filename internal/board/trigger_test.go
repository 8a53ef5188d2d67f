package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTriggerWithNoChipIsInert(t *testing.T) {
	trig, err := OpenTrigger("", 0)
	require.NoError(t, err)

	assert.NoError(t, trig.Pulse())
	assert.NoError(t, trig.Close())
}
