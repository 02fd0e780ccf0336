package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/config"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadConfig("", "")
	require.NoError(t, err)

	return cfg
}
