package app

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// doneToken is an already completed mqtt.Token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// recordingPublisher stores every message; topics listed in fail get an
// error token instead.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	fail map[string]error
}

func (p *recordingPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail[topic]; err != nil {
		return doneToken{err: err}
	}
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.topic)
	}
	return out
}
