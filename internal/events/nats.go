package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages matching topic on the returned channel.
	// The returned cancel function unsubscribes and closes the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// clientName identifies kplan connections in NATS monitoring.
const clientName = "kplan"

// NATSPublisher publishes events to the NATS subject named by the topic.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name(clientName))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	return p.conn.Publish(topic, data)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber follows events on NATS subjects. Its connection reconnects
// indefinitely, so a watcher survives server restarts.
type NATSSubscriber struct {
	conn *nats.Conn
}

// NewNATSSubscriber connects to NATS. Extra options such as disconnect
// handlers are applied after the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	defaults := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe follows topic, which may use NATS wildcards such as "kplan.>".
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	sn := newSubscription()
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		sn.deliver(Message{Topic: msg.Subject, Data: msg.Data})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The server must register interest before events published after
	// Subscribe returns can be routed to us.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("flushing subscription to %s: %w", topic, err)
	}
	sn.stop = func() { _ = sub.Unsubscribe() }
	return sn.ch, sn.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
