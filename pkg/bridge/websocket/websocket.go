// Package websocket exposes a serial driver to websocket clients as binary
// messages.
package websocket

import (
	"context"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/serial"
)

// DefaultPath is where Server mounts the handler.
const DefaultPath = "/serial"

// Serve pumps bytes between conn and stream until either side fails or ctx
// is done. Concurrent connections on one stream share the received bytes.
func Serve(ctx context.Context, conn *websocket.Conn, stream serial.Stream) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		buf := make([]byte, 256)
		for {
			n, err := stream.ReadContext(ctx, buf)
			if err != nil {
				return
			}
			if err = websocket.Message.Send(conn, buf[:n]); err != nil {
				glog.V(2).Infof("websocket: send: %v", err)
				return
			}
		}
	}()

	var err error
	for {
		var pkt []byte
		if err = websocket.Message.Receive(conn, &pkt); err != nil {
			break
		}
		if _, err = stream.WriteContext(ctx, pkt); err != nil {
			break
		}
	}
	cancel()
	<-done
	return err
}

// Handler creates a websocket handler serving stream.
func Handler(stream serial.Stream) websocket.Handler {
	return func(conn *websocket.Conn) {
		glog.Infof("websocket: client %s connected", conn.Request().RemoteAddr)
		err := Serve(conn.Request().Context(), conn, stream)
		glog.Infof("websocket: client %s disconnected: %v", conn.Request().RemoteAddr, err)
	}
}

// Server listens for websocket clients.
type Server struct {
	Addr   string
	Path   string
	Stream serial.Stream
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(path, Handler(s.Stream))
	srv := &http.Server{Handler: mux}
	glog.Infof("websocket: listening on ws://%s%s", ln.Addr(), path)
	return framework.RunWithContextCloser(ctx, srv, func() error {
		return srv.Serve(ln)
	})
}
