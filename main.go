package main

import (
	"os"

	"github.com/jzmstrjp/kikitori/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
