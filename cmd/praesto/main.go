package main

import (
	"os"

	"github.com/hamed0406/praesto/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
