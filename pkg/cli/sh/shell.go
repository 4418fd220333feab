// Package sh provides an interactive shell over a serial driver.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/serial.go/pkg/env"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool
	attach     bool

	// commands
	commands = []*ishell.Cmd{
		&RxCmd,
		&TxCmd,
		&RaiseCmd,
		&WriteCmd,
		&ReadCmd,
		&DrainCmd,
		&FlagsCmd,
		&StatsCmd,
		&QueuesCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&attach, "attach", attach, "Attach the driver to the configured port.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config, session *Session) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:   ishell.New(),
		Config:  conf,
		Session: session,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(s.prompt())
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeDetached wraps command func which plays the interrupt side.
func MustBeDetached(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session.Attached() {
			c.Err(ErrAttached)
			return
		}
		fn(c)
	}
}

// Output prints val as JSON when requested, otherwise text.
func (s *Shell) Output(c *ishell.Context, val interface{}, text string) {
	if !s.OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(val)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

func (s *Shell) prompt() string {
	mode := "detached"
	if s.Session.Attached() {
		mode = s.Config.Port
	}
	return fmt.Sprintf("[%s %s] > ", s.Session.Name, mode)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	s.Session.Start(context.Background())
	defer s.Session.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// NewSessionFromConfig creates the driver described by conf, attached to
// its port when attach is set.
func NewSessionFromConfig(conf *env.Config, attach bool) (*Session, error) {
	if !attach {
		d, err := conf.NewDriver(nil)
		if err != nil {
			return nil, err
		}
		return NewSession(conf.Mode, d), nil
	}
	p, d, err := conf.NewPort()
	if err != nil {
		return nil, err
	}
	session := NewSession(conf.Mode, d)
	session.Port = p
	return session, nil
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	session, err := NewSessionFromConfig(conf, attach)
	if err != nil {
		log.Fatalln(err)
	}
	New(conf, session).Run(flag.Args()...)
}
