// Package main provides the entry point for the fiisheet CLI.
//
// fiisheet scrapes Brazilian real estate fund (FII) listings and writes the
// resulting table into a spreadsheet tab.
//
// Usage:
//
//	fiisheet run [job...]
//	fiisheet preview <job>
//
// See --help for all available options.
package main

import "os"

// main is the entry point for fiisheet.
func main() {
	os.Exit(Execute())
}
