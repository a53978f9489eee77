package main

import (
	"trade-signal-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
