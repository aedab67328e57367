package llm

import (
	"context"
	"sync"
	"time"
)

// MockReply describe una respuesta programada para una llamada del mock.
type MockReply struct {
	Completion Completion
	Err        error
	Delay      time.Duration
}

// MockClient permite tests sin llamar a un LLM real. Las llamadas consumen
// Script en orden; agotado el script se usa Response/Err.
type MockClient struct {
	mu       sync.Mutex
	Script   []MockReply
	Response Completion
	Err      error
	Calls    [][]Turn
}

func (m *MockClient) Complete(ctx context.Context, turns []Turn, _ Options) (Completion, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, turns)
	var reply MockReply
	if len(m.Script) > 0 {
		reply = m.Script[0]
		m.Script = m.Script[1:]
	} else {
		reply = MockReply{Completion: m.Response, Err: m.Err}
	}
	m.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		}
	}
	return reply.Completion, reply.Err
}

// CallCount devuelve cuántas invocaciones recibió el mock.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
