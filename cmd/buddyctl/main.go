// Package main provides buddyctl, the operator CLI for seeding accounts,
// clubs and invites directly against a BuddyRead data directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
