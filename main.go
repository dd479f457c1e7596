package main

import (
	"github.com/synthmerge/synthbench/cmd"
)

func main() {
	cmd.Execute()
}
