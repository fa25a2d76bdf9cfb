package main

import "github.com/mcoot/authsamples/internal/cli"

func main() {
	cli.Execute()
}
