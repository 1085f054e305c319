package main

import (
	"github.com/towerclash/battlesync/internal/cli"
)

func main() {
	cli.Execute()
}
