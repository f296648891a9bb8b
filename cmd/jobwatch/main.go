package main

import (
	"fmt"
	"os"

	"jobwatch-go/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.LoadApp).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
