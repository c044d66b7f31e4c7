package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Canned is a queued Mock reply.
type Canned struct {
	Content json.RawMessage
	Err     error
}

// Mock is an offline Provider. Queued replies are returned first; once the
// queue is empty it answers with Example of the request schema, or an
// UnavailableError when the request has none and Fallback is off.
type Mock struct {
	mu       sync.Mutex
	queue    []Canned
	calls    []Request
	Fallback bool
}

// NewMock returns a Mock with replies queued.
func NewMock(replies ...Canned) *Mock {
	return &Mock{queue: replies}
}

// Push queues a reply.
func (m *Mock) Push(c Canned) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()
}

// Calls returns the requests received so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// ModelID implements Provider.
func (m *Mock) ModelID() string { return "mock" }

// Generate implements Provider.
func (m *Mock) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.queue) > 0 {
		c := m.queue[0]
		m.queue = m.queue[1:]
		if c.Err != nil {
			return nil, c.Err
		}
		if err := Validate(req.Schema, c.Content); err != nil {
			return nil, err
		}
		return &Response{Content: c.Content, Model: "mock", StopReason: "end"}, nil
	}
	if !m.Fallback || req.Schema == nil {
		return nil, &UnavailableError{}
	}
	b, err := json.Marshal(Example(req.Schema.Definition))
	if err != nil {
		return nil, &InvalidResponseError{Err: err}
	}
	return &Response{Content: b, Model: "mock", StopReason: "end"}, nil
}
