package cmd

import (
	"testing"

	"github.com/truemediaorg/tiktokpost/database"

	"github.com/stretchr/testify/assert"
)

type fakeDisconnector struct {
	calls *[]string
}

func (f fakeDisconnector) Disconnect() {
	*f.calls = append(*f.calls, "disconnect")
}

func TestExitWithFailure(t *testing.T) {
	var calls []string
	exitCode := -1
	originalExit := exit
	exit = func(code int) {
		calls = append(calls, "exit")
		exitCode = code
	}
	t.Cleanup(func() { exit = originalExit })

	t.Run("disconnects the publish log before exiting", func(t *testing.T) {
		calls = nil
		exitWithFailure(fakeDisconnector{calls: &calls})
		assert.Equal(t, []string{"disconnect", "exit"}, calls)
		assert.Equal(t, 1, exitCode)
	})

	t.Run("works without a publish log", func(t *testing.T) {
		calls = nil
		var db *database.Database
		assert.NotPanics(t, func() { exitWithFailure(db) })
		assert.Equal(t, []string{"exit"}, calls)
	})
}
