package main

import (
	"github.com/onflow/rollup-node/cmd/rollup-node/cmd"
)

func main() {
	cmd.Execute()
}
