package main

import (
	"os"

	"github.com/ThomasCrouzet/domainforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
