package main

import "github.com/masqueradebot/masquerade/internal/cli"

func main() {
	cli.Execute()
}
