package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tochi12ob/clini/logger"
)

// Observer receives every event emitted during a run.
type Observer interface {
	OnEvent(event *Event)
}

// Emitter creates and fans out run lifecycle events. Safe for
// concurrent emission from worker goroutines.
type Emitter struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEmitter creates an emitter with no observers.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// AddObserver registers an observer for subsequent events.
func (e *Emitter) AddObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
}

// NewRun creates the root event for a run of the given component
// ("probe", "register"). The run id doubles as the trace id for all
// child events.
func (e *Emitter) NewRun(component string, data EventData) *Event {
	runID := uuid.NewString()
	return &Event{
		Type:      data.GetEventType(),
		Timestamp: time.Now(),
		TraceID:   runID,
		SpanID:    runID,
		RunID:     runID,
		Component: component,
		Data:      data,
	}
}

// NewChild creates an event under parent, inheriting its trace, run id
// and component.
func (e *Emitter) NewChild(parent *Event, data EventData) *Event {
	return &Event{
		Type:      data.GetEventType(),
		Timestamp: time.Now(),
		TraceID:   parent.TraceID,
		SpanID:    uuid.NewString(),
		ParentID:  parent.SpanID,
		RunID:     parent.RunID,
		Component: parent.Component,
		Data:      data,
	}
}

// Emit sends event to all observers in registration order.
func (e *Emitter) Emit(event *Event) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}

// LogObserver writes events to a structured logger. It is the default
// observer the CLI attaches for progress output.
type LogObserver struct {
	Log logger.Logger
}

// NewLogObserver creates a LogObserver over log.
func NewLogObserver(log logger.Logger) *LogObserver {
	return &LogObserver{Log: log}
}

// OnEvent implements Observer.
func (o *LogObserver) OnEvent(event *Event) {
	fields := []logger.Field{
		logger.String("run_id", event.RunID),
		logger.String("component", event.Component),
	}
	switch data := event.Data.(type) {
	case *RunStartEvent:
		o.Log.Info("run started", append(fields,
			logger.Int("tools", data.ToolCount),
			logger.Int("parallel", data.Parallel))...)
	case *RunEndEvent:
		o.Log.Info("run complete", append(fields,
			logger.Int("passed", data.Passed),
			logger.Int("failed", data.Failed),
			logger.Any("duration", data.Duration))...)
	case *RunErrorEvent:
		o.Log.Warn("run failed", append(fields,
			logger.String("error", data.Error))...)
	case *ToolCheckStartEvent:
		o.Log.Debug("checking webhook", append(fields,
			logger.String("tool", data.Tool),
			logger.String("method", data.Method),
			logger.String("url", data.URL))...)
	case *ToolCheckEndEvent:
		if data.Passed {
			o.Log.Info("webhook ok", append(fields,
				logger.String("tool", data.Tool),
				logger.Int("status", data.StatusCode))...)
		} else {
			o.Log.Warn("webhook failed", append(fields,
				logger.String("tool", data.Tool),
				logger.Int("status", data.StatusCode),
				logger.String("detail", data.Detail))...)
		}
	case *ToolRegisterStartEvent:
		o.Log.Debug("registering tool", append(fields,
			logger.String("tool", data.Tool))...)
	case *ToolRegisterEndEvent:
		if data.Registered {
			o.Log.Info("tool registered", append(fields,
				logger.String("tool", data.Tool),
				logger.String("tool_id", data.ToolID))...)
		} else {
			o.Log.Warn("tool registration failed", append(fields,
				logger.String("tool", data.Tool),
				logger.String("detail", data.Detail))...)
		}
	default:
		o.Log.Debug("event", append(fields,
			logger.String("type", string(event.Type)))...)
	}
}
