// Package common holds the response envelope and health types shared by the
// HTTP API, the CLI and the Go client.
package common

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrorDetail is the error body of an API response.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Detail  string                 `json:"detail,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// APIResponse wraps every API payload.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp Timestamp    `json:"timestamp"`
}

// Timestamp marshals as RFC 3339 in UTC.
type Timestamp time.Time

func NewTimestamp() Timestamp { return Timestamp(time.Now().UTC()) }

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// HealthStatus indicates the health of a component or service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth is one dependency's probe result.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs float64      `json:"latency_ms"`
	Message   string       `json:"message,omitempty"`
}

// HealthReport aggregates component probes.  Status is down when any
// required component is down.
type HealthReport struct {
	Status     HealthStatus      `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components []ComponentHealth `json:"components,omitempty"`
	CheckedAt  Timestamp         `json:"checked_at"`
}

func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data, Timestamp: NewTimestamp()}
}

func NewErrorResponse(code, message string) APIResponse[any] {
	return APIResponse[any]{
		Success:   false,
		Error:     &ErrorDetail{Code: code, Message: message},
		Timestamp: NewTimestamp(),
	}
}

// GenerateID returns a UUID, prefixed when prefix is non-empty.
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}

// ContextKey namespaces request-scoped context values.
type ContextKey string

const ContextKeyRequestID ContextKey = "request_id"

//Personal.AI order the ending
