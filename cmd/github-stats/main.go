package main

import "github.com/amarzeus/github-stats-cli/internal/cli"

func main() {
	cli.Execute()
}
