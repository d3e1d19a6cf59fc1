package main

import (
	"os"

	"github.com/funkysandman/geowise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
