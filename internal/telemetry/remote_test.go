package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromSinkExportsNumericKeys(t *testing.T) {
	g := NewWithT(t)
	reg := prometheus.NewRegistry()

	s, err := NewPromSink(reg, "slide")
	g.Expect(err).NotTo(HaveOccurred())

	s.AddData("reference", 1200.0)
	s.AddData("actual pos", 980)
	s.AddData("prop location:", "left")
	s.Update()
	s.Update()

	g.Expect(testutil.ToFloat64(s.values.WithLabelValues("reference"))).To(Equal(1200.0))
	g.Expect(testutil.ToFloat64(s.values.WithLabelValues("actual pos"))).To(Equal(980.0))
	g.Expect(testutil.ToFloat64(s.frames)).To(Equal(1.0))
	g.Expect(testutil.CollectAndCount(s.values)).To(Equal(2))

	_, err = NewPromSink(reg, "slide")
	g.Expect(err).To(HaveOccurred())
}

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, done bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if done {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}
func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	tokens   []*fakeToken
	block    chan struct{}
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	tok := newFakeToken(nil, true)
	if len(p.tokens) > 0 {
		tok, p.tokens = p.tokens[0], p.tokens[1:]
	}
	return tok
}

func TestMQTTSinkPublishesFrames(t *testing.T) {
	g := NewWithT(t)
	pub := &fakePublisher{}
	s := NewMQTTSink(pub, "slide/telemetry", 0, nil)

	s.Update()
	s.AddData("reference", 1500.0)
	s.AddData("actual pos", 1490.0)
	s.Update()
	s.AddData("reference", 1500.0)
	s.Update()
	s.Close()

	g.Expect(pub.topics).To(Equal([]string{"slide/telemetry", "slide/telemetry"}))

	var first, second Frame
	g.Expect(frameDecMode.Unmarshal(pub.payloads[0], &first)).To(Succeed())
	g.Expect(first.Seq).To(BeZero())
	pos, ok := first.Float("actual pos")
	g.Expect(ok).To(BeTrue())
	g.Expect(pos).To(Equal(1490.0))

	g.Expect(frameDecMode.Unmarshal(pub.payloads[1], &second)).To(Succeed())
	g.Expect(second.Seq).To(Equal(uint64(1)))
	g.Expect(second.Values).To(HaveLen(1))

	published, failed := s.Stats()
	g.Expect(published).To(Equal(uint64(2)))
	g.Expect(failed).To(BeZero())
}

func TestMQTTSinkCountsFailedPublishes(t *testing.T) {
	g := NewWithT(t)
	pub := &fakePublisher{tokens: []*fakeToken{
		newFakeToken(errors.New("not connected"), true),
		newFakeToken(nil, false),
		newFakeToken(nil, true),
	}}
	s := newMQTTSink(pub, "t", 1, nil, 8, 20*time.Millisecond)

	for _, v := range []float64{1, 2, 3} {
		s.AddData("k", v)
		s.Update()
	}
	s.Close()

	published, failed := s.Stats()
	g.Expect(published).To(Equal(uint64(1)))
	g.Expect(failed).To(Equal(uint64(2)))
}

func TestMQTTSinkUpdateDoesNotBlockOnStalledClient(t *testing.T) {
	g := NewWithT(t)
	pub := &fakePublisher{block: make(chan struct{})}
	s := newMQTTSink(pub, "t", 0, nil, 2, time.Second)

	const frames = 10
	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		for i := 0; i < frames; i++ {
			s.AddData("k", float64(i))
			s.Update()
		}
	}()
	g.Eventually(flushed, time.Second).Should(BeClosed())

	_, failed := s.Stats()
	g.Expect(failed).To(BeNumerically(">=", frames-3))

	close(pub.block)
	s.Close()
	published, failed := s.Stats()
	g.Expect(published + failed).To(Equal(uint64(frames)))
	g.Expect(published).To(BeNumerically(">=", 1))

	// closed sinks ignore further frames
	s.AddData("k", 99.0)
	s.Update()
	published2, failed2 := s.Stats()
	g.Expect(published2).To(Equal(published))
	g.Expect(failed2).To(Equal(failed))
}
