package main

import (
	"errors"
	"fmt"
	"os"

	"myPromoGame/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// validate already printed what was wrong
		if !errors.Is(err, cli.ErrReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
