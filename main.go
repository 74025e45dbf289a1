package main

import (
	"cleanny-dispatch/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
