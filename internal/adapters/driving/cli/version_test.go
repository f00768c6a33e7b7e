package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	oldVersion := version
	SetVersion("1.2.3")
	defer SetVersion(oldVersion)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "boorufind version 1.2.3\n", buf.String())
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "boorufind", rootCmd.Use)
}

func TestConfigure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	agg := newMockAggregator()
	Configure(Deps{Aggregator: agg})
	assert.Same(t, agg, aggregator)
	assert.Nil(t, mediaClient)
}
