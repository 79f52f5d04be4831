// Command dsmodel inspects and moves the raw entities of a dsmodel store.
package main

import (
	"os"

	"github.com/mesh-intelligence/dsmodel/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
