package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplanCommandProducesSuccessorPlan(t *testing.T) {
	root := newRootCmd(&rootFlags{})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"replan", "--reason", "tool unavailable", "gather", "data"})

	require.NoError(t, root.Execute())

	output := buf.String()
	require.Contains(t, output, "successorPlan:")
	require.Contains(t, output, "reason: tool unavailable")
}
