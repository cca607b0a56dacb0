// Command dbcforge patches binary client data tables from declarative
// YAML change documents and packages the results.
package main

import (
	"os"

	"github.com/modcraft-labs/dbcforge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
