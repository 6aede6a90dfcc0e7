package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenDecimals(t *testing.T) {
	d, err := tokenDecimals(18)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	d, err = tokenDecimals(255)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), d)

	_, err = tokenDecimals(256)
	assert.Error(t, err)
	_, err = tokenDecimals(300)
	assert.Error(t, err)
}

func TestCheckPasswordMinimumLength(t *testing.T) {
	_, err := checkPassword([]byte("short"))
	assert.Error(t, err)

	pw, err := checkPassword([]byte("long-enough"))
	require.NoError(t, err)
	assert.Equal(t, "long-enough", string(pw))
}
