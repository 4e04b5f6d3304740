package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	threshold, err := ParseThreshold("6", 64)
	require.NoError(t, err)
	assert.Equal(t, 6, threshold)

	_, err = ParseThreshold("-1", 64)
	assert.Error(t, err)

	_, err = ParseThreshold("65", 64)
	assert.Error(t, err)

	_, err = ParseThreshold("many", 64)
	assert.Error(t, err)
}

func TestParseWorkers(t *testing.T) {
	workers, err := ParseWorkers("8")
	require.NoError(t, err)
	assert.Equal(t, 8, workers)

	_, err = ParseWorkers("0")
	assert.Error(t, err)
}
