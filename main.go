package main

import (
	"os"

	"github.com/hashbeam/snapkv/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
