//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI binary with the given arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", bin, args, err)
	}
	return nil
}

// Scrape collects filtered pull requests from the configured repositories.
func Scrape() error {
	mg.Deps(Build)
	return run("scrape")
}

// Index ingests evaluation result files into the SQLite results index.
func Index() error {
	mg.Deps(Build)
	return run("results", "store")
}
