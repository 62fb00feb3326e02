package app

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool { return false }
func (m fakeMessage) Qos() byte { return 0 }
func (m fakeMessage) Retained() bool { return false }
func (m fakeMessage) Topic() string { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Ack() {}

// fakeClient implements the parts of mqtt.Client the app uses.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	connectErr   error
	subscribeErr error
	handlers     map[string]mqtt.MessageHandler
	published    map[string][][]byte
	unsubscribed []string
	disconnected int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:  make(map[string]mqtt.MessageHandler),
		published: make(map[string][][]byte),
	}
}

func (c *fakeClient) Connect() mqtt.Token { return fakeToken{err: c.connectErr} }

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected++
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return fakeToken{err: c.subscribeErr}
	}
	c.handlers[topic] = cb
	return fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.unsubscribed = append(c.unsubscribed, topics...)
	return fakeToken{}
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[topic] = append(c.published[topic], payload.([]byte))
	return fakeToken{}
}

// deliver invokes the subscription callback the way the paho router does.
func (c *fakeClient) deliver(topic string, payload []byte) bool {
	c.mu.Lock()
	cb, ok := c.handlers[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	cb(c, fakeMessage{topic: topic, payload: payload})
	return true
}

func (c *fakeClient) publishedOn(topic string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.published[topic]...)
}

func (c *fakeClient) disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}
