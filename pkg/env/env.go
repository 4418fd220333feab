// Package env collects process configuration from environment variables
// and command line flags.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/serial"
	"github.com/robotalks/serial.go/pkg/serial/port"
)

// Duplex modes.
const (
	FullDuplex = "full"
	HalfDuplex = "half"
)

// Config provides options to set up a driver, its port and bridges.
type Config struct {
	// Port is the OS serial device, or "loopback" for an in-memory line.
	Port        string
	BaudRate    int
	DataBits    int
	Parity      string
	StopBits    string
	ReadTimeout time.Duration

	// Mode selects FullDuplex or HalfDuplex.
	Mode   string
	RxSize int
	TxSize int

	// MQTTURL is like mqtt://host:port/topic-prefix.
	MQTTURL string
	// WebsocketAddr enables the websocket bridge when not empty.
	WebsocketAddr string
	ClientID      string
}

// Loopback names the in-memory port.
const Loopback = "loopback"

var defaultConfig = Config{
	Port:        Loopback,
	BaudRate:    115200,
	DataBits:    8,
	ReadTimeout: 100 * time.Millisecond,
	Mode:        FullDuplex,
	RxSize:      256,
	TxSize:      256,
	MQTTURL:     "mqtt://localhost:1883/serial/",
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Name  string
	Value string
}

// Error implements error.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Name, e.Value)
}

func init() {
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

// LoadEnv overrides c with SERIAL_* variables looked up by getenv.
func (c *Config) LoadEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"SERIAL_PORT":      &c.Port,
		"SERIAL_PARITY":    &c.Parity,
		"SERIAL_STOPBITS":  &c.StopBits,
		"SERIAL_MODE":      &c.Mode,
		"SERIAL_MQTT_URL":  &c.MQTTURL,
		"SERIAL_WS_ADDR":   &c.WebsocketAddr,
		"SERIAL_CLIENT_ID": &c.ClientID,
	}
	for name, ptr := range strs {
		if val := getenv(name); val != "" {
			*ptr = val
		}
	}
	ints := map[string]*int{
		"SERIAL_BAUD":     &c.BaudRate,
		"SERIAL_DATABITS": &c.DataBits,
		"SERIAL_RX_SIZE":  &c.RxSize,
		"SERIAL_TX_SIZE":  &c.TxSize,
	}
	for name, ptr := range ints {
		val := getenv(name)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return &ConfigError{Name: name, Value: val}
		}
		*ptr = n
	}
	if val := getenv("SERIAL_READ_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &ConfigError{Name: "SERIAL_READ_TIMEOUT", Value: val}
		}
		c.ReadTimeout = d
	}
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.Port, "port", c.Port, "Serial device, or loopback.")
	flag.IntVar(&c.BaudRate, "baud", c.BaudRate, "Baud rate.")
	flag.IntVar(&c.DataBits, "databits", c.DataBits, "Data bits.")
	flag.StringVar(&c.Parity, "parity", c.Parity, "Parity: none, odd, even, mark, space.")
	flag.StringVar(&c.StopBits, "stopbits", c.StopBits, "Stop bits: 1, 1.5, 2.")
	flag.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Device read timeout.")
	flag.StringVar(&c.Mode, "mode", c.Mode, "Driver mode: full or half.")
	flag.IntVar(&c.RxSize, "rx-size", c.RxSize, "Receive queue size.")
	flag.IntVar(&c.TxSize, "tx-size", c.TxSize, "Transmit queue size, full duplex only.")
	flag.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&c.WebsocketAddr, "ws", c.WebsocketAddr, "Websocket listen address.")
	flag.StringVar(&c.ClientID, "client-id", c.ClientID, "MQTT client ID.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// PortConfig converts c into an OS port configuration.
func (c *Config) PortConfig() port.Config {
	return port.Config{
		Name:        c.Port,
		BaudRate:    c.BaudRate,
		DataBits:    c.DataBits,
		Parity:      c.Parity,
		StopBits:    c.StopBits,
		ReadTimeout: c.ReadTimeout,
	}
}

// IsLoopback tells whether c selects the in-memory port.
func (c *Config) IsLoopback() bool {
	return c.Port == "" || c.Port == Loopback
}

// NewDriver creates a driver with transmission started through onotify.
func (c *Config) NewDriver(onotify func()) (serial.Device, error) {
	if c.RxSize <= 0 {
		return nil, &ConfigError{Name: "rx-size", Value: strconv.Itoa(c.RxSize)}
	}
	switch strings.ToLower(c.Mode) {
	case "", FullDuplex:
		if c.TxSize <= 0 {
			return nil, &ConfigError{Name: "tx-size", Value: strconv.Itoa(c.TxSize)}
		}
		return serial.NewFullDuplexDriver(make([]byte, c.RxSize), nil, make([]byte, c.TxSize), onotify), nil
	case HalfDuplex:
		return serial.NewHalfDuplexDriver(make([]byte, c.RxSize), nil, onotify), nil
	}
	return nil, &ConfigError{Name: "mode", Value: c.Mode}
}

// NewPort opens the configured port and attaches a new driver to it.
func (c *Config) NewPort() (*port.Port, serial.Device, error) {
	var p *port.Port
	if c.IsLoopback() {
		p = port.New(port.NewLoopback(c.RxSize))
	} else {
		stream, err := port.Open(c.PortConfig())
		if err != nil {
			return nil, nil, err
		}
		p = port.New(stream)
	}
	d, err := c.NewDriver(p.StartTransmit)
	if err != nil {
		return nil, nil, err
	}
	p.Attach(d)
	return p, d, nil
}

// MQTTClientID returns the configured client ID or one derived from the
// machine ID.
func (c *Config) MQTTClientID(app string) string {
	if c.ClientID != "" {
		return c.ClientID
	}
	id := MachineID(app)
	if len(id) > 12 {
		id = id[:12]
	}
	return app + "-" + id
}

// MachineID retrieves an app specific ID of the machine, falling back to
// the host name and process ID.
func MachineID(app string) string {
	id, err := machineid.ProtectedID(app)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		host, _ := os.Hostname()
		return fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	return id
}
