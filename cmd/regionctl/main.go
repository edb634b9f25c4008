package main

import (
	"fmt"
	"os"

	"github.com/edvin/multiregion/internal/regionctl"
)

func main() {
	if err := regionctl.NewRootCommand(&regionctl.App{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
