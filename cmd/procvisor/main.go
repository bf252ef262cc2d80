// Command procvisor is the entry point of an application server container:
// it runs the server next to a log forwarder and takes both down together.
package main

import (
	"fmt"
	"os"
)

func main() {
	// Execute only returns on errors found before any task starts; a
	// running supervisor ends the process itself.
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "procvisor: %v\n", err)
		os.Exit(2)
	}
}
