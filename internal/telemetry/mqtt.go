package telemetry

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Status payloads published, retained, under <topic>/status.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

const (
	// DefaultMQTTQueue is how many encoded frames may wait for the publisher.
	DefaultMQTTQueue = 64

	mqttPublishWait  = 2 * time.Second
	mqttWriteTimeout = time.Second
)

// MQTTSink publishes each flushed batch as a CBOR frame. Update only encodes
// and enqueues; a worker goroutine hands frames to the client and waits on
// each token. When the queue is full the frame is dropped and counted as
// failed. Close drains the queue and stops the worker.
type MQTTSink struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *slog.Logger
	now    func() time.Time
	wait   time.Duration

	mu      sync.Mutex
	pending map[string]any
	seq     uint64
	closed  bool

	frames chan []byte
	done   chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
}

func NewMQTTSink(pub Publisher, topic string, qos byte, logger *slog.Logger) *MQTTSink {
	return newMQTTSink(pub, topic, qos, logger, DefaultMQTTQueue, mqttPublishWait)
}

func newMQTTSink(pub Publisher, topic string, qos byte, logger *slog.Logger, queue int, wait time.Duration) *MQTTSink {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MQTTSink{
		pub:     pub,
		topic:   topic,
		qos:     qos,
		logger:  logger.With(slog.String("component", "mqtt"), slog.String("topic", topic)),
		now:     time.Now,
		wait:    wait,
		pending: make(map[string]any),
		frames:  make(chan []byte, queue),
		done:    make(chan struct{}),
	}
	go s.publishLoop()
	return s
}

func (s *MQTTSink) AddData(key string, value any) {
	s.mu.Lock()
	s.pending[key] = value
	s.mu.Unlock()
}

func (s *MQTTSink) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.pending) == 0 {
		return
	}

	payload, err := frameEncMode.Marshal(Frame{Seq: s.seq, Time: s.now(), Values: s.pending})
	s.seq++
	s.pending = make(map[string]any)
	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("encode frame", slog.Any("error", err))
		return
	}

	select {
	case s.frames <- payload:
	default:
		s.failed.Add(1)
		s.logger.Debug("publish queue full, frame dropped", slog.Uint64("seq", s.seq-1))
	}
}

func (s *MQTTSink) publishLoop() {
	defer close(s.done)
	for payload := range s.frames {
		tok := s.pub.Publish(s.topic, s.qos, false, payload)
		if !tok.WaitTimeout(s.wait) {
			s.failed.Add(1)
			s.logger.Warn("publish frame", slog.String("error", "timed out"), slog.Duration("wait", s.wait))
			continue
		}
		if err := tok.Error(); err != nil {
			s.failed.Add(1)
			s.logger.Warn("publish frame", slog.Any("error", err))
			continue
		}
		s.published.Add(1)
	}
}

// Close stops accepting frames and waits for queued ones to be published.
func (s *MQTTSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	s.mu.Unlock()
	<-s.done
}

// Stats reports frames the client confirmed and frames that were dropped,
// timed out or failed.
func (s *MQTTSink) Stats() (published, failed uint64) {
	return s.published.Load(), s.failed.Load()
}

// ConnectMQTT connects to broker with a retained last-will of StatusOffline
// on <topic>/status and announces StatusOnline once connected.
func ConnectMQTT(broker, clientID, topic string, timeout time.Duration) (mqtt.Client, error) {
	status := topic + "/status"
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetKeepAlive(30*time.Second).
		SetAutoReconnect(true).
		SetWriteTimeout(mqttWriteTimeout).
		SetWill(status, StatusOffline, 1, true)

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out after %v", broker, timeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}

	client.Publish(status, 1, true, StatusOnline).WaitTimeout(timeout)
	return client, nil
}
