package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/bridge"
	"github.com/robotalks/serial.go/pkg/bridge/websocket"
	"github.com/robotalks/serial.go/pkg/comm/mqtt"
	"github.com/robotalks/serial.go/pkg/env"
	fx "github.com/robotalks/serial.go/pkg/framework"
)

const appName = "serialbridge"

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	p, d, err := conf.NewPort()
	if err != nil {
		glog.Exit(err)
	}

	q, err := mqtt.NewQueueFromURL(conf.MQTTURL, conf.MQTTClientID(appName))
	if err != nil {
		glog.Exit(err)
	}
	if err = q.Connect(); err != nil {
		glog.Exitf("connect %s: %v", conf.MQTTURL, err)
	}
	defer q.Close()

	runner := fx.NewRunner().HandleSignals().Go(
		fx.NamedRun("port", p),
		fx.NamedRun("mqtt", bridge.New(d, q)),
	)
	if conf.WebsocketAddr != "" {
		runner.Go(fx.NamedRun("websocket", &websocket.Server{Addr: conf.WebsocketAddr, Stream: d}))
	}
	if err = runner.Wait(); err != nil {
		glog.Error(err)
	}
}
