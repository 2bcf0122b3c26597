// Command crawler crawls every page reachable from a start URL on the same
// host and prints the links found on each page.
//
// Usage:
//
//	crawler [flags] <start-url>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
