package main

import (
	"os"

	"github.com/bnema/nightscout-tidepool-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
