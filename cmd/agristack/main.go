// Command agristack is the operator CLI: it exports reports, drives the
// debounced search from a terminal, seeds fixtures and mints tokens.
package main

import (
	"fmt"
	"os"

	dErrors "agristack/pkg/domain-errors"
)

const (
	exitError  = 1
	exitNoData = 2
)

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(c).Execute()
	c.close()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, dErrors.MessageOf(err))
	if dErrors.HasCode(err, dErrors.CodeNoData) {
		os.Exit(exitNoData)
	}
	os.Exit(exitError)
}
