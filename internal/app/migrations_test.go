package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrationsRejectsMalformedDSN(t *testing.T) {
	err := runMigrations("not a dsn", "file://../../migrations")

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config")
}
