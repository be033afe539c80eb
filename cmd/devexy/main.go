package main

import (
	"fmt"
	"os"

	"github.com/sycdan/devexy/internal/cleanup"
	"github.com/sycdan/devexy/internal/cli"
)

func main() {
	defer cleanup.Run()

	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cleanup.Run() // os.Exit skips the deferred Run
		os.Exit(1)
	}
}
