package ai

import (
	"context"
	"sync"
)

// MockClient is a Client for tests: fixed or sequential replies, error
// injection, and call recording.
type MockClient struct {
	mu sync.Mutex

	reply       string
	replies     []string
	replyIdx    int
	replyErr    error
	correctFunc func(string) string
	correctErr  error

	replyCalls   []string
	correctCalls []string
}

// NewMockClient creates a mock that answers every Reply with response.
// By default Correct returns its input unchanged.
func NewMockClient(response string) *MockClient {
	return &MockClient{reply: response}
}

// WithReplies makes Reply return the given responses in order, cycling
// back to the first when exhausted.
func (m *MockClient) WithReplies(responses ...string) *MockClient {
	m.replies = responses
	return m
}

// WithReplyError makes Reply fail with err.
func (m *MockClient) WithReplyError(err error) *MockClient {
	m.replyErr = err
	return m
}

// WithCorrection makes Correct apply fn to its input.
func (m *MockClient) WithCorrection(fn func(string) string) *MockClient {
	m.correctFunc = fn
	return m
}

// WithCorrectError makes Correct fail with err.
func (m *MockClient) WithCorrectError(err error) *MockClient {
	m.correctErr = err
	return m
}

// Reply implements Client.
func (m *MockClient) Reply(_ context.Context, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replyCalls = append(m.replyCalls, userMessage)

	if m.replyErr != nil {
		return "", m.replyErr
	}
	if len(m.replies) > 0 {
		r := m.replies[m.replyIdx%len(m.replies)]
		m.replyIdx++
		return r, nil
	}
	return m.reply, nil
}

// Correct implements Client.
func (m *MockClient) Correct(_ context.Context, userMessage string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.correctCalls = append(m.correctCalls, userMessage)

	if m.correctErr != nil {
		return "", m.correctErr
	}
	if m.correctFunc != nil {
		return m.correctFunc(userMessage), nil
	}
	return userMessage, nil
}

// ReplyCalls returns the messages passed to Reply, in order.
func (m *MockClient) ReplyCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.replyCalls...)
}

// CorrectCalls returns the messages passed to Correct, in order.
func (m *MockClient) CorrectCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.correctCalls...)
}
