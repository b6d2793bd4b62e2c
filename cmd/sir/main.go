// Package main is the entry point for the sir CLI tool.
package main

import (
	"github.com/hargabyte/sir/internal/cmd"
)

func main() {
	cmd.Execute()
}
