// Command postclean cleans stored blog post HTML.
package main

import (
	"os"

	"github.com/jmylchreest/postclean/cmd/postclean/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
