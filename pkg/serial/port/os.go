package port

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"
	bugst "go.bug.st/serial"
)

// Config describes an OS serial device.
type Config struct {
	Name        string
	BaudRate    int
	DataBits    int
	Parity      string
	StopBits    string
	ReadTimeout time.Duration
}

// Mode converts c into a go.bug.st/serial mode.
func (c Config) Mode() (*bugst.Mode, error) {
	parity, err := ParseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := ParseStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}
	mode := &bugst.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = 115200
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	return mode, nil
}

// Open opens the device described by c.
func Open(c Config) (io.ReadWriteCloser, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	p, err := bugst.Open(c.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", c.Name, err)
	}
	if c.ReadTimeout > 0 {
		if err = p.SetReadTimeout(c.ReadTimeout); err != nil {
			p.Close()
			return nil, err
		}
	}
	glog.Infof("opened %s at %d baud", c.Name, mode.BaudRate)
	return p, nil
}

// List returns the serial devices present on the system.
func List() ([]string, error) {
	return bugst.GetPortsList()
}

// ParseParity accepts none, odd, even, mark or space.
func ParseParity(s string) (bugst.Parity, error) {
	switch strings.ToLower(s) {
	case "", "none", "n":
		return bugst.NoParity, nil
	case "odd", "o":
		return bugst.OddParity, nil
	case "even", "e":
		return bugst.EvenParity, nil
	case "mark", "m":
		return bugst.MarkParity, nil
	case "space", "s":
		return bugst.SpaceParity, nil
	}
	return bugst.NoParity, fmt.Errorf("invalid parity %q", s)
}

// ParseStopBits accepts 1, 1.5 or 2.
func ParseStopBits(s string) (bugst.StopBits, error) {
	switch s {
	case "", "1":
		return bugst.OneStopBit, nil
	case "1.5":
		return bugst.OnePointFiveStopBits, nil
	case "2":
		return bugst.TwoStopBits, nil
	}
	return bugst.OneStopBit, fmt.Errorf("invalid stop bits %q", s)
}

// FormatMode renders mode in the usual 115200 8N1 notation.
func FormatMode(mode *bugst.Mode) string {
	parity := "N"
	switch mode.Parity {
	case bugst.OddParity:
		parity = "O"
	case bugst.EvenParity:
		parity = "E"
	case bugst.MarkParity:
		parity = "M"
	case bugst.SpaceParity:
		parity = "S"
	}
	stopBits := "1"
	switch mode.StopBits {
	case bugst.OnePointFiveStopBits:
		stopBits = "1.5"
	case bugst.TwoStopBits:
		stopBits = "2"
	}
	return fmt.Sprintf("%d %d%s%s", mode.BaudRate, mode.DataBits, parity, stopBits)
}
