package rlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize_JSONMode(t *testing.T) {
	require := assert.New(t)
	err := Initialize(true)
	require.NoError(err)
	require.True(JSONOutput)
	require.NotNil(Logger)
}

func TestInitialize_ConsoleMode(t *testing.T) {
	require := assert.New(t)
	err := Initialize(false)
	require.NoError(err)
	require.False(JSONOutput)
	require.NotNil(Logger)
}

func TestWrappersDoNotPanicBeforeInitialize(t *testing.T) {
	// Logger defaults to a no-op sugared logger at package init, so
	// calling the wrappers before Initialize must never panic.
	assert.NotPanics(t, func() {
		Info("test")
		Infof("test %d", 1)
		Infow("test", "key", "value")
		Warn("test")
		Debug("test")
		Error("test")
	})
}
