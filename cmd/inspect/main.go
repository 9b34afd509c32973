package main

import (
	"fmt"
	"os"

	"github.com/doc-inspector/webclient/cmd/inspect/commands"
)

var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
