package main

import "github.com/reoring/docskema/internal/cli"

func main() {
	cli.Execute()
}
