package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/dht-sensor/internal/logic"
)

// DefaultClientID identifies this daemon to the broker.
const DefaultClientID = "dht-sensor"

// outboxSize caps messages held while disconnected.
const outboxSize = 100

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	logger *log.Logger

	mu            sync.Mutex
	pending       *outbox
	connectedOnce bool
}

// NewRealPublisher creates a publisher connected to the given broker. If the
// broker is unreachable at startup the publisher is still returned; paho
// keeps retrying and queued messages go out once it connects.
func NewRealPublisher(broker, clientID string, logger *log.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		logger:  logger,
		pending: newOutbox(outboxSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, WillPayload(), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		logger.Warn("mqtt broker not reachable yet, queueing", "broker", broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connectedOnce
	p.connectedOnce = true
	msgs, dropped := p.pending.take()
	p.mu.Unlock()

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(TopicSystem, 1, false, payload); err != nil {
			p.logger.Warn("publish reconnected event", "err", err)
		}
	}

	if dropped > 0 {
		p.logger.Warn("mqtt outbox overflowed while disconnected", "dropped", dropped)
	}
	for _, m := range msgs {
		if err := p.send(m.topic, m.qos, m.retained, m.payload); err != nil {
			p.logger.Warn("replay queued message", "topic", m.topic, "err", err)
		}
	}
	if len(msgs) > 0 {
		p.logger.Info("replayed queued messages", "count", len(msgs))
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.logger.Warn("mqtt connection lost", "err", err)
}

// Publish sends a reading or sensor event. Readings go at QoS 0; fault and
// recovery at QoS 1.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var qos byte
	if event.Type != logic.EventReading {
		qos = 1
	}
	return p.publish(Topic, qos, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.pending.add(pendingMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.send(topic, qos, retained, payload)
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
