package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_ValidLevel(t *testing.T) {
	flags := &cmdFlags{LogLevel: "debug", TextFormat: true}
	require.NoError(t, initLogger(flags))
}

func TestInitLogger_JSONFormat(t *testing.T) {
	flags := &cmdFlags{LogLevel: "warn", TextFormat: false}
	require.NoError(t, initLogger(flags))
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	flags := &cmdFlags{LogLevel: "nope"}
	err := initLogger(flags)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
