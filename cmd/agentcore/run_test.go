package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommandExecutesPlanToCompletion(t *testing.T) {
	root := newRootCmd(&rootFlags{})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"run", "--timeout", "2s", "summarize", "the", "document"})

	require.NoError(t, root.Execute())

	output := buf.String()
	require.Contains(t, output, "status: completed")
}
