// Command hyperdocs serves documentation sites and blogs built from
// markdown in Git repositories.
//
//	hyperdocs serve --config hyperdocs.yaml
//	hyperdocs sites create --name Acme --repo https://github.com/acme/handbook
//	hyperdocs render acme docs/intro --html
//	hyperdocs warm acme
package main

import (
	"fmt"
	"os"

	"github.com/hyperdocs/hyperdocs/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:], nil); err != nil {
		fmt.Fprintln(os.Stderr, "hyperdocs:", err)
		os.Exit(1)
	}
}
