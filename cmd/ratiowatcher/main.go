package main

import (
	"ratio-alerts/internal/cli"
)

func main() {
	cli.Execute()
}
