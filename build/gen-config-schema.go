// gen-config-schema writes the JSON schema of the confsync configuration file,
// reflected from internal/config.Config, to the path given as argument.
package main

import (
	"fmt"
	"os"

	"github.com/confsync/confsync/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s path/to/schema.json\n", os.Args[0])
		os.Exit(2)
	}

	bs, err := config.ReflectSchema()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := os.WriteFile(os.Args[1], append(bs, '\n'), 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
