// Command shopdesk-check runs the back office field checks offline.
package main

import (
	"os"

	"github.com/artpar/shopdesk/cmd/shopdesk-check/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
