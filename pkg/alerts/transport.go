package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	// Register all transports (tcp, ipc, inproc, ...)
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
	"github.com/dd0wney/cluso-resilience/pkg/metrics"
)

// TopicPrefix starts every message. The full topic is "ALERT:<kind>:" so a
// subscriber can filter by kind with a prefix subscription.
const TopicPrefix = "ALERT:"

func Topic(kind Kind) []byte {
	return []byte(TopicPrefix + string(kind) + ":")
}

func encodeMessage(a Alert) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode alert: %w", err)
	}
	return append(Topic(a.Kind), body...), nil
}

func decodeMessage(msg []byte) (Alert, error) {
	var a Alert
	if !bytes.HasPrefix(msg, []byte(TopicPrefix)) {
		return a, fmt.Errorf("decode alert: missing %q prefix", TopicPrefix)
	}
	rest := msg[len(TopicPrefix):]
	i := bytes.IndexByte(rest, ':')
	if i < 0 {
		return a, errors.New("decode alert: malformed topic")
	}
	if err := json.Unmarshal(rest[i+1:], &a); err != nil {
		return a, fmt.Errorf("decode alert: %w", err)
	}
	return a, nil
}

// Publisher broadcasts alerts on a PUB socket.
type Publisher struct {
	mu      sync.Mutex
	sock    mangos.Socket
	addr    string
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewPublisher listens on addr (e.g. "tcp://*:40899" or "inproc://alerts").
func NewPublisher(addr string, logger logging.Logger, reg *metrics.Registry) (*Publisher, error) {
	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger.Info("alert publisher bound", logging.String("addr", addr))
	return &Publisher{sock: sock, addr: addr, logger: logger, metrics: reg}, nil
}

func (p *Publisher) Addr() string { return p.addr }

// Publish sends each alert. PUB never blocks on slow subscribers; alerts to
// absent subscribers are dropped by the protocol.
func (p *Publisher) Publish(alerts ...Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, a := range alerts {
		msg, err := encodeMessage(a)
		if err != nil {
			return err
		}
		if err := p.sock.Send(msg); err != nil {
			return fmt.Errorf("publish alert %s: %w", a.ID, err)
		}
		if p.metrics != nil {
			p.metrics.RecordAlert(string(a.Kind), string(a.Severity))
		}
		p.logger.Debug("alert published",
			logging.String("kind", string(a.Kind)),
			logging.String("severity", string(a.Severity)),
			logging.NodeID(a.NodeID))
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sock.Close()
}

// Subscriber receives alerts from a Publisher.
type Subscriber struct {
	sock mangos.Socket
}

// pollInterval bounds how long Receive blocks before re-checking ctx.
const pollInterval = 250 * time.Millisecond

// NewSubscriber dials addr and subscribes to the given kinds, or to every
// alert when none are given.
func NewSubscriber(addr string, kinds ...Kind) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	topics := [][]byte{[]byte(TopicPrefix)}
	if len(kinds) > 0 {
		topics = topics[:0]
		for _, k := range kinds {
			topics = append(topics, Topic(k))
		}
	}
	for _, t := range topics {
		if err := sock.SetOption(mangos.OptionSubscribe, t); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
	}
	if err := sock.SetOption(mangos.OptionRecvDeadline, pollInterval); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set receive deadline: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Subscriber{sock: sock}, nil
}

// Receive blocks until an alert arrives or ctx is done.
func (s *Subscriber) Receive(ctx context.Context) (Alert, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Alert{}, err
		}
		msg, err := s.sock.Recv()
		if errors.Is(err, mangos.ErrRecvTimeout) {
			continue
		}
		if err != nil {
			return Alert{}, fmt.Errorf("receive alert: %w", err)
		}
		return decodeMessage(msg)
	}
}

func (s *Subscriber) Close() error {
	return s.sock.Close()
}
