// # cmd/evmc/main.go
package main

import (
	"os"

	"evmc/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
