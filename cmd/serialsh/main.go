package main

import (
	"github.com/robotalks/serial.go/pkg/cli/sh"
	"github.com/robotalks/serial.go/pkg/env"

	_ "github.com/robotalks/serial.go/pkg/cli/cmds/ports"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
