package main

import (
	"os"

	"github.com/revlens/revlens/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
