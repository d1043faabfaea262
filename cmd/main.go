package main

import (
	"os"

	"github.com/charmbracelet/log"
)

// Main entry point for the vesper runtime.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error("vesper failed", "error", err)
		os.Exit(1)
	}
}
