package main

import (
	"os"

	"github.com/zaidAlkhathlan/ramdan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
