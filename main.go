// The main package for the content-audit executable.
package main

import "github.com/partsignal/content-audit/cmd"

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
