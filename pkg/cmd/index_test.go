package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndexCmd(t *testing.T) {
	cmd := newIndexCmd(&cmdFlags{})

	assert.Equal(t, "index", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	maxPagesFlag := cmd.Flags().Lookup("max-pages")
	assert.NotNil(t, maxPagesFlag)
	assert.Equal(t, "300", maxPagesFlag.DefValue)
}

func TestRunIndex_RequiresBaseURL(t *testing.T) {
	err := runIndex(t.Context(), &cmdFlags{LogLevel: "info", TextFormat: true}, &indexFlags{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base-url is required")
}
