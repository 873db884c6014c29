// Package testutil provides fixtures and fakes shared by the RateCraft test
// suites.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry.  Child
// loggers from With and Named write into the parent's buffer.
type MockLogger struct {
	buf    *messageBuffer
	name   string
	fields []logging.Field
}

type messageBuffer struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{buf: &messageBuffer{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	m.buf.messages = append(m.buf.messages, LogMessage{Level: level, Logger: m.name, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := &MockLogger{buf: m.buf, name: m.name}
	child.fields = append(append(child.fields, m.fields...), fields...)
	return child
}

func (m *MockLogger) Named(name string) logging.Logger {
	child := &MockLogger{buf: m.buf, name: name, fields: m.fields}
	if m.name != "" {
		child.name = m.name + "." + name
	}
	return child
}

func (m *MockLogger) WithContext(ctx context.Context) logging.Logger {
	if id := logging.RequestIDFrom(ctx); id != "" {
		return m.With(logging.String(logging.FieldRequestID, id))
	}
	return m
}

func (m *MockLogger) WithError(err error) logging.Logger {
	if err == nil {
		return m
	}
	return m.With(logging.Err(err))
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	out := make([]LogMessage, len(m.buf.messages))
	copy(out, m.buf.messages)
	return out
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	m.buf.messages = m.buf.messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	return m.Count(level, msg) > 0
}

// Count returns how many entries match level and msg.
func (m *MockLogger) Count(level, msg string) int {
	m.buf.mu.Lock()
	defer m.buf.mu.Unlock()
	n := 0
	for _, logged := range m.buf.messages {
		if logged.Level == level && logged.Message == msg {
			n++
		}
	}
	return n
}

var _ logging.Logger = (*MockLogger)(nil)

//Personal.AI order the ending
