package main

import (
	"os"

	"github.com/aryanA101a/lulu/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
