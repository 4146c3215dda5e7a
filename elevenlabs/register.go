package elevenlabs

import (
	"context"
	"time"

	"github.com/tochi12ob/clini/events"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/toolschema"
)

// RegisterOutcome is the result of registering one tool.
type RegisterOutcome struct {
	Tool       string
	ToolID     string
	Registered bool
	Detail     string
}

// RegisterSummary aggregates one registration run.
type RegisterSummary struct {
	Registered int
	Failed     int
	Duration   time.Duration
	Results    []RegisterOutcome
}

// AllRegistered reports whether every tool was accepted.
func (s *RegisterSummary) AllRegistered() bool {
	return s.Failed == 0
}

// RegisterAll registers every tool on the account, one POST each, in
// order. A rejected tool is recorded and the run moves on; nothing is
// rolled back.
func (c *Client) RegisterAll(ctx context.Context, tools []toolschema.WebhookTool, emitter *events.Emitter) (*RegisterSummary, error) {
	if len(tools) == 0 {
		return nil, toolschema.ErrNoTools
	}
	if emitter == nil {
		emitter = events.NewEmitter()
	}

	run := emitter.NewRun("register", &events.RunStartEvent{ToolCount: len(tools), Parallel: 1})
	emitter.Emit(run)
	start := time.Now()

	summary := &RegisterSummary{Results: make([]RegisterOutcome, 0, len(tools))}
	for i := range tools {
		tool := &tools[i]
		emitter.Emit(emitter.NewChild(run, &events.ToolRegisterStartEvent{Tool: tool.Name}))

		outcome := RegisterOutcome{Tool: tool.Name}
		reg := toolschema.BuildRegistration(*tool)
		result, err := c.RegisterTool(ctx, &reg)
		if err != nil {
			outcome.Detail = err.Error()
			summary.Failed++
			c.log.Warn("tool registration failed",
				logger.String("tool", tool.Name),
				logger.String("detail", outcome.Detail))
		} else {
			outcome.Registered = true
			outcome.ToolID = result.ToolID
			summary.Registered++
		}
		summary.Results = append(summary.Results, outcome)

		emitter.Emit(emitter.NewChild(run, &events.ToolRegisterEndEvent{
			Tool:       outcome.Tool,
			Registered: outcome.Registered,
			ToolID:     outcome.ToolID,
			Detail:     outcome.Detail,
		}))
	}

	summary.Duration = time.Since(start)
	emitter.Emit(emitter.NewChild(run, &events.RunEndEvent{
		Passed:     summary.Registered,
		Failed:     summary.Failed,
		DurationMS: summary.Duration.Milliseconds(),
		Duration:   summary.Duration,
	}))
	return summary, nil
}
