package main

import "github.com/tansive/tansive-inventory/internal/cli"

func main() {
	cli.Execute()
}
