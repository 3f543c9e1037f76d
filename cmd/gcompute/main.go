package main

import (
	"os"

	"github.com/yaroslav/gcompute/cmd/gcompute/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
