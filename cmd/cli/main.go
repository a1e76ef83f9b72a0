package main

import (
	"fmt"
	"os"

	"profile-extract-go/pkg/cli"
	"profile-extract-go/pkg/cli/results"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprint(os.Stderr, results.FormatErrorMessage(err))
		os.Exit(1)
	}
}
