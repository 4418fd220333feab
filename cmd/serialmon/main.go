package main

import (
	"flag"
	"log"
	"strings"

	"github.com/robotalks/serial.go/pkg/bridge"
	"github.com/robotalks/serial.go/pkg/comm/mqtt"
	"github.com/robotalks/serial.go/pkg/env"
	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/msgs"
)

func init() {
	env.SetupFlags()
}

func lastLevel(topic string) string {
	if pos := strings.LastIndex(topic, "/"); pos >= 0 {
		return topic[pos+1:]
	}
	return topic
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := env.NewConfig()
	q, err := mqtt.NewQueueFromURL(conf.MQTTURL, conf.MQTTClientID("serialmon"))
	if err != nil {
		log.Fatalln(err)
	}
	if err = q.Connect(); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	_, err = q.Subscribe("#", func(topic string, payload []byte) {
		switch lastLevel(topic) {
		case bridge.TopicRx, bridge.TopicTx:
			chunk, err := msgs.DecodeDataChunk(payload)
			if err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: %q", topic, chunk.Data)
		case bridge.TopicStatus:
			report, err := msgs.DecodeStatusReport(payload)
			if err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: %s rx=%d tx=%d overruns=%d", topic,
				report.Conditions(), report.RxBytes, report.TxBytes, report.Overruns)
		default:
			log.Printf("%s: %d bytes", topic, len(payload))
		}
	})
	if err != nil {
		log.Fatalln(err)
	}
	<-fx.NewRunner().HandleSignals().Context.Done()
}
