// The main package for the chartfetch executable.
package main

import (
	"github.com/filmoteca/chartfetch/cmd"
)

// main is the entry point of the CLI.
// It defers all execution to the Cobra command tree.
func main() {
	cmd.Execute()
}
