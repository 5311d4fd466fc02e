// Package main is the entry point for the bfvmetrics CLI tool, which ingests
// scraped Battlefield match reports and builds per-player analytics tables.
package main

import "github.com/pable/go-bfv-analytics/cmd"

func main() {
	cmd.Execute()
}
