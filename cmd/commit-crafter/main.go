package main

import (
	"os"

	"github.com/yzzting/commit-crafter/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
