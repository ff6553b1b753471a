package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MQTTConfig selects the broker and topic records are published to.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	Retain   bool
	Username string
	Password string
	// Timeout bounds connect and each publish.
	Timeout time.Duration
	// QueueSize is how many records may wait for the broker. When full the
	// oldest is dropped. Zero selects 64.
	QueueSize int
}

// Publisher is the subset of mqtt.Client the sink uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes each record as JSON from its own goroutine. Write only
// queues, so a slow broker never holds up the caller.
type MQTTSink struct {
	c       Publisher
	topic   string
	qos     byte
	retain  bool
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.Mutex
	queue  chan []byte
	closed bool
	done   chan struct{}

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// DialMQTT connects to the broker. The client reconnects on its own after
// the initial connection succeeds.
func DialMQTT(cfg MQTTConfig, log logrus.FieldLogger) (*MQTTSink, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("record: mqtt broker is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("mqtt connection lost")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("record: mqtt connect %s: timeout after %s", cfg.Broker, cfg.Timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("record: mqtt connect %s: %w", cfg.Broker, err)
	}
	log.WithFields(logrus.Fields{"broker": cfg.Broker, "topic": cfg.Topic}).Info("mqtt connected")
	return NewMQTTSink(client, cfg, log), nil
}

// NewMQTTSink starts the publishing goroutine for c.
func NewMQTTSink(c Publisher, cfg MQTTConfig, log logrus.FieldLogger) *MQTTSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	s := &MQTTSink{
		c:       c,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.Timeout,
		log:     log,
		queue:   make(chan []byte, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *MQTTSink) run() {
	defer close(s.done)
	for payload := range s.queue {
		token := s.c.Publish(s.topic, s.qos, s.retain, payload)
		var err error
		if !token.WaitTimeout(s.timeout) {
			err = fmt.Errorf("timeout after %s", s.timeout)
		} else {
			err = token.Error()
		}
		if err == nil {
			continue
		}
		n := s.failed.Add(1)
		if n == 1 || n%100 == 0 {
			s.log.WithError(err).WithFields(logrus.Fields{"topic": s.topic, "failed": n}).Warn("mqtt publish failed")
		}
	}
}

// Write queues r for publishing and never waits for the broker.
func (s *MQTTSink) Write(r Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("record: mqtt marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("record: mqtt sink is closed")
	}
	for {
		select {
		case s.queue <- payload:
			return nil
		default:
		}
		// Full: make room by dropping the oldest queued record.
		select {
		case <-s.queue:
			s.dropped.Add(1)
		default:
		}
	}
}

// Dropped is the number of records discarded because the queue was full.
func (s *MQTTSink) Dropped() uint64 { return s.dropped.Load() }

// Failed is the number of publishes the broker did not acknowledge.
func (s *MQTTSink) Failed() uint64 { return s.failed.Load() }

// Close stops accepting records, gives the queue up to one publish timeout
// to drain and disconnects.
func (s *MQTTSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	t := time.NewTimer(s.timeout)
	defer t.Stop()
	select {
	case <-s.done:
	case <-t.C:
		s.log.WithField("topic", s.topic).Warn("mqtt queue not drained before close")
	}
	s.c.Disconnect(250)
	return nil
}
