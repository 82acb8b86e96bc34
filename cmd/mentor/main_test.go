package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardrailErrorDetection(t *testing.T) {
	err := fmt.Errorf("eval: %w", &GuardrailError{Message: "unsafe rate 0.50 < 0.80"})

	var guardrailErr *GuardrailError
	require.True(t, errors.As(err, &guardrailErr))
	assert.Equal(t, "unsafe rate 0.50 < 0.80", guardrailErr.Message)

	var other *GuardrailError
	assert.False(t, errors.As(errors.New("plain failure"), &other))
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{"analyze", "eval", "inject", "serve", "memory", "sessions", "cache"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "subcommand %s", name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCommandSilencesUsage(t *testing.T) {
	root := newRootCommand()
	assert.True(t, root.SilenceUsage)
	assert.Equal(t, version, root.Version)
}
