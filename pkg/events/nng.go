package events

import (
	"encoding/json"
	"fmt"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
)

// NNGPublisher broadcasts events on a mangos PUB socket. Each message is the topic,
// a colon, then the JSON event, so SUB sockets can filter with OptionSubscribe.
type NNGPublisher struct {
	sock     mangos.Socket
	listener *LoggingListener
}

// NewNNGPublisher listens on addr (for example "tcp://127.0.0.1:9500" or "inproc://events")
func NewNNGPublisher(addr string, logger logging.Logger, reg *metrics.Registry) (*NNGPublisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create pub socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p := &NNGPublisher{sock: sock}
	p.listener = NewLoggingListener("nng", p.Notify, logger, reg)
	return p, nil
}

// Notify sends ev on the socket
func (p *NNGPublisher) Notify(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := append([]byte(ev.Topic()+":"), data...)
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// OnEvent implements Listener
func (p *NNGPublisher) OnEvent(ev Event) {
	p.listener.OnEvent(ev)
}

// Close closes the socket
func (p *NNGPublisher) Close() error {
	return p.sock.Close()
}
