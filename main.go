package main

import (
	"os"

	"github.com/forestryvehicleadmin/motorpool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
