package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanCommandPrintsStepDAG(t *testing.T) {
	root := newRootCmd(&rootFlags{})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"plan", "--strategy", "linear", "research", "the", "topic"})

	require.NoError(t, root.Execute())

	output := buf.String()
	require.Contains(t, output, "strategy: linear")
	require.Contains(t, output, "steps:")
}

func TestPlanCommandRejectsUnknownStrategy(t *testing.T) {
	root := newRootCmd(&rootFlags{})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"plan", "--strategy", "nonexistent", "do something"})

	require.Error(t, root.Execute())
}
