package main

import (
	"bytes"
	"testing"
)

// useBufferWriters swaps stdOut/stdErr with in-memory buffers for the duration
// of a test and returns both so CLI output can be asserted without polluting
// test logs.
func useBufferWriters(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()

	out = &bytes.Buffer{}
	errOut = &bytes.Buffer{}

	prevOut := stdOut
	prevErr := stdErr

	stdOut = out
	stdErr = errOut

	t.Cleanup(func() {
		stdOut = prevOut
		stdErr = prevErr
	})

	return out, errOut
}
