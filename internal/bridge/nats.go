// Package bridge publishes turn events to NATS for external surfaces such
// as the notification panel. Publication is fire-and-forget; the engine
// never blocks on a consumer.
package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/vinayprograms/agentkit/logging"
)

// DispatchEvent announces that a worker was selected for a hop.
type DispatchEvent struct {
	ThreadID  string    `json:"thread_id"`
	Worker    string    `json:"worker"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnEvent announces a completed conversation turn.
type TurnEvent struct {
	ThreadID  string    `json:"thread_id"`
	Response  string    `json:"response"`
	Hops      int       `json:"hops"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits turn events. The zero-value Noop implementation is used
// when no NATS URL is configured.
type Publisher interface {
	WorkerDispatched(ev DispatchEvent)
	TurnCompleted(ev TurnEvent)
	Close()
}

// NATSPublisher publishes events on "<prefix>.dispatch" and "<prefix>.turn".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewNATSPublisher connects to the given NATS URL.
func NewNATSPublisher(url, subjectPrefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("claimpilot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	return &NATSPublisher{
		conn:   conn,
		prefix: subjectPrefix,
		logger: logging.New().WithComponent("bridge"),
	}, nil
}

// WorkerDispatched implements Publisher.
func (p *NATSPublisher) WorkerDispatched(ev DispatchEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	p.publish(p.prefix+".dispatch", ev)
}

// TurnCompleted implements Publisher.
func (p *NATSPublisher) TurnCompleted(ev TurnEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	p.publish(p.prefix+".turn", ev)
}

func (p *NATSPublisher) publish(subject string, ev interface{}) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("event publish failed", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
	}
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

// Noop is the publisher used when events are disabled.
type Noop struct{}

func (Noop) WorkerDispatched(DispatchEvent) {}
func (Noop) TurnCompleted(TurnEvent)        {}
func (Noop) Close()                         {}
