package main

import "github.com/n6g7/dnstable/internal/cli"

func main() {
	cli.Execute()
}
