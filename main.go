// The main package for the dictcrawler executable.
package main

import (
	"os"

	"github.com/JakeFAU/dictcrawler/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
