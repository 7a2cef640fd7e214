// lexnav is a retrieval and context-assembly engine for GDPR and
// EU AI Act questions.
package main

import (
	"fmt"
	"os"

	"github.com/lexnav/lexnav/cmd/lexnav/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
