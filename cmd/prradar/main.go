package main

import (
	"os"

	"github.com/dshills/prradar/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
