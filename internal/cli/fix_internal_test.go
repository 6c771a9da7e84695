package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingFormatterTip(t *testing.T) {
	require.Equal(t, "Install the missing formatters.", missingFormatterTip(""))
	require.Equal(t,
		"Install the missing formatters, or override their rules in /home/u/.config/g/config.yaml",
		missingFormatterTip("/home/u/.config/g/config.yaml"))
}
