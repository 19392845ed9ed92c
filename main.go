package main

import (
	"os"

	"github.com/commercelens/commercelens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
