package events

import (
	"time"
)

// EventType identifies a run lifecycle event.
type EventType string

const (
	// Run events
	RunStart EventType = "run_start"
	RunEnd   EventType = "run_end"
	RunError EventType = "run_error"

	// Per-tool events
	ToolCheckStart EventType = "tool_check_start"
	ToolCheckEnd   EventType = "tool_check_end"

	// Tool registration events
	ToolRegisterStart EventType = "tool_register_start"
	ToolRegisterEnd   EventType = "tool_register_end"
)

// Event is a single lifecycle event within a run. Child events inherit
// the run's trace id so observers can group them.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
	SpanID    string    `json:"span_id,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Component string    `json:"component,omitempty"`
	Data      EventData `json:"data"`
}

// EventData is implemented by all typed event payloads.
type EventData interface {
	GetEventType() EventType
}

// RunStartEvent marks the beginning of a probe or registration run.
type RunStartEvent struct {
	ToolCount int `json:"tool_count"`
	Parallel  int `json:"parallel"`
}

func (e *RunStartEvent) GetEventType() EventType { return RunStart }

// RunEndEvent summarizes a completed run.
type RunEndEvent struct {
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	DurationMS int64         `json:"duration_ms"`
	Duration   time.Duration `json:"-"`
}

func (e *RunEndEvent) GetEventType() EventType { return RunEnd }

// RunErrorEvent marks a run that could not complete.
type RunErrorEvent struct {
	Error string `json:"error"`
}

func (e *RunErrorEvent) GetEventType() EventType { return RunError }

// ToolCheckStartEvent marks the start of a single webhook check.
type ToolCheckStartEvent struct {
	Tool   string `json:"tool"`
	Method string `json:"method"`
	URL    string `json:"url"`
}

func (e *ToolCheckStartEvent) GetEventType() EventType { return ToolCheckStart }

// ToolCheckEndEvent carries the outcome of a single webhook check.
type ToolCheckEndEvent struct {
	Tool       string `json:"tool"`
	Passed     bool   `json:"passed"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

func (e *ToolCheckEndEvent) GetEventType() EventType { return ToolCheckEnd }

// ToolRegisterStartEvent marks the start of a single tool registration.
type ToolRegisterStartEvent struct {
	Tool string `json:"tool"`
}

func (e *ToolRegisterStartEvent) GetEventType() EventType { return ToolRegisterStart }

// ToolRegisterEndEvent carries the outcome of a single tool registration.
type ToolRegisterEndEvent struct {
	Tool       string `json:"tool"`
	Registered bool   `json:"registered"`
	ToolID     string `json:"tool_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (e *ToolRegisterEndEvent) GetEventType() EventType { return ToolRegisterEnd }

// IsEndEvent reports whether eventType closes an open span.
func IsEndEvent(eventType EventType) bool {
	return eventType == RunEnd ||
		eventType == RunError ||
		eventType == ToolCheckEnd ||
		eventType == ToolRegisterEnd
}
