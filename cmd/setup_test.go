// Shared helpers for the cmd tests.
//
// Globals mutated: every scan flag, configFile, verbose, newRunners, stdout.
package cmd

import (
	"bytes"
	"io"
	"os"
)

// captureOutput swaps stdout for a pipe while f runs.
func captureOutput(f func()) string {
	old := stdout
	oldOS := os.Stdout
	r, w, _ := os.Pipe()
	stdout = w
	os.Stdout = w

	f()

	_ = w.Close()
	stdout = old
	os.Stdout = oldOS

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// resetFlags puts every flag global back to its default and returns a
// function that does the same, for use as defer resetFlags()().
func resetFlags() func() {
	origRunners := newRunners
	origVersion, origCommit, origDate := Version, Commit, Date
	reset := func() {
		configFile = ""
		verbose = false
		imageTag = ""
		packagesFile = ""
		useSyft = false
		packageManager = ""
		targetOS = ""
		outputFile = defaultOutput
		outputFormat = formatJSON
		dryRun = false
		metricsFile = ""
	}
	reset()
	return func() {
		reset()
		newRunners = origRunners
		Version, Commit, Date = origVersion, origCommit, origDate
		rootCmd.SetArgs(nil)
	}
}
