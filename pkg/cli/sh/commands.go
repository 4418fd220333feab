package sh

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/serial.go/pkg/serial"
)

// CommandTimeout bounds blocking task-side commands.
var CommandTimeout = time.Second

func countArg(c *ishell.Context, def int) (int, bool) {
	if len(c.Args) == 0 {
		return def, true
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil || n < 0 {
		c.Err(fmt.Errorf("invalid count %q", c.Args[0]))
		return 0, false
	}
	return n, true
}

var (
	// RxCmd feeds bytes into the driver as if received.
	RxCmd = ishell.Cmd{
		Name:    "rx",
		Aliases: []string{"inject"},
		Help:    "DATA",
		Func: MustBeDetached(func(c *ishell.Context) {
			data, err := ParseData(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			dropped, err := s.Session.Inject(data)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]int{"received": len(data) - dropped, "dropped": dropped},
				fmt.Sprintf("received %d dropped %d", len(data)-dropped, dropped))
		}),
	}

	// TxCmd pulls bytes the transmitter would send.
	TxCmd = ishell.Cmd{
		Name:    "tx",
		Aliases: []string{"pull"},
		Help:    "[COUNT]",
		Func: MustBeDetached(func(c *ishell.Context) {
			n, ok := countArg(c, 0)
			if !ok {
				return
			}
			s := ShellFrom(c)
			data, err := s.Session.Pull(n)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, string(data), FormatData(data))
		}),
	}

	// RaiseCmd raises line conditions.
	RaiseCmd = ishell.Cmd{
		Name: "raise",
		Help: "FLAG[|FLAG...]",
		Func: MustBeDetached(func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("flags expected"))
				return
			}
			flags, err := serial.ParseFlags(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Err(ShellFrom(c).Session.Raise(flags))
		}),
	}

	// WriteCmd queues bytes for transmission.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "DATA",
		Func: func(c *ishell.Context) {
			data, err := ParseData(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
			defer cancel()
			n, err := s.Session.Device.WriteContext(ctx, data)
			if err != nil && n == 0 {
				c.Err(err)
				return
			}
			s.Output(c, map[string]int{"queued": n}, fmt.Sprintf("queued %d", n))
		},
	}

	// ReadCmd takes received bytes without blocking.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			n, ok := countArg(c, 256)
			if !ok {
				return
			}
			s := ShellFrom(c)
			buf := make([]byte, n)
			buf = buf[:s.Session.Device.TryRead(buf)]
			s.Output(c, string(buf), FormatData(buf))
		},
	}

	// DrainCmd waits until everything queued has been transmitted.
	DrainCmd = ishell.Cmd{
		Name: "drain",
		Help: "",
		Func: func(c *ishell.Context) {
			ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
			defer cancel()
			c.Err(ShellFrom(c).Session.Device.Drain(ctx))
		},
	}

	// FlagsCmd fetches and clears pending line conditions.
	FlagsCmd = ishell.Cmd{
		Name:    "flags",
		Aliases: []string{"f"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			flags := s.Session.Device.GetAndClearFlags()
			s.Output(c, uint32(flags), flags.String())
		},
	}

	// StatsCmd prints driver counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Session.Device.Stats()
			s.Output(c, st, fmt.Sprintf("rx %d tx %d overruns %d drains %d status %d",
				st.RxBytes, st.TxBytes, st.Overruns, st.Drains, st.StatusSignals))
		},
	}

	// QueuesCmd prints queue occupancy.
	QueuesCmd = ishell.Cmd{
		Name:    "queues",
		Aliases: []string{"q"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			text := s.Session.Queues()
			s.Output(c, text, text)
		},
	}
)
