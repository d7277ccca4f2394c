package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApp(t *testing.T) {
	app := createApp()
	require.NotNil(t, app)
	assert.Equal(t, "chkitctl", app.Name)

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"query", "ping", "type"}, names)
}

func TestUsageError(t *testing.T) {
	err := usageErrorf("missing %s", "sql")
	assert.EqualError(t, err, "missing sql")
}
