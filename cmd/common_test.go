package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScaleCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	c.Flags().Int("scale", 0, "")
	require.NoError(t, c.Flags().Parse(args))
	return c
}

func TestScaleFlag(t *testing.T) {
	scale, err := scaleFlag(newScaleCommand(t), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, scale)

	scale, err = scaleFlag(newScaleCommand(t, "--scale", "3"), 2)
	require.NoError(t, err)
	assert.Equal(t, 3, scale)

	for _, bad := range []string{"0", "-1"} {
		_, err = scaleFlag(newScaleCommand(t, "--scale", bad), 2)
		assert.ErrorContains(t, err, "--scale must be at least 1", bad)
	}
}
