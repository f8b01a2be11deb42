package main

import "iopls/internal/cli"

func main() {
	cli.Execute()
}
