package main

import (
	"os"

	"github.com/pricewatch-dev/pricewatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
