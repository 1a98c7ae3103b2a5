package main

import (
	"fmt"
	"os"

	"web3nav/cmd/navadmin/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
