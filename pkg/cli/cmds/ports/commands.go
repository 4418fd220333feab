// Package ports adds shell commands about OS serial devices.
package ports

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/serial.go/pkg/cli/sh"
	"github.com/robotalks/serial.go/pkg/serial/port"
)

var (
	// PortsCmd lists serial devices present on the system.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"ls"},
		Help:    "",
		Func: func(c *ishell.Context) {
			names, err := port.List()
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			if names == nil {
				names = []string{}
			}
			if s.OutputJSON {
				s.Output(c, names, "")
				return
			}
			if len(names) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, name := range names {
				c.Println(name)
			}
		},
	}

	// ConfigCmd prints the port configuration in use.
	ConfigCmd = ishell.Cmd{
		Name: "config",
		Help: "",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			conf := s.Config.PortConfig()
			mode, err := conf.Mode()
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, conf, conf.Name+" "+port.FormatMode(mode))
		},
	}
)

func init() {
	sh.AddCmds(
		&PortsCmd,
		&ConfigCmd,
	)
}
