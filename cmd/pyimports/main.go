package main

import "pyimports/internal/ui/cli"

func main() {
	cli.Main()
}
