// Package probe fires one synthetic request at every webhook tool in a
// generated config and reports which of them answer 2xx. Payloads are
// built from each tool's required fields only, so a passing check means
// the route exists and accepts the documented shape.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tochi12ob/clini/dispatch"
	"github.com/tochi12ob/clini/events"
	"github.com/tochi12ob/clini/logger"
	"github.com/tochi12ob/clini/toolschema"
)

// DefaultToolTimeout matches the response_timeout_secs the generator
// stamps on every tool.
const DefaultToolTimeout = 20 * time.Second

// detailLimit caps how much response text a Result keeps.
const detailLimit = 200

var ErrNoTools = errors.New("probe: no tools to check")

// Result is the outcome of one webhook check.
type Result struct {
	Tool       string
	Method     string
	URL        string
	Passed     bool
	StatusCode int
	Detail     string
	Duration   time.Duration
}

// Summary aggregates one probe run.
type Summary struct {
	Passed   int
	Failed   int
	Duration time.Duration
	Results  []Result
}

// AllPassed reports whether every checked tool answered 2xx.
func (s *Summary) AllPassed() bool {
	return s.Failed == 0
}

// Options tunes a Runner.
type Options struct {
	// Timeout bounds each tool request, DefaultToolTimeout when zero.
	Timeout time.Duration
	// Parallel is the number of concurrent checks; values below 2 mean
	// sequential, in tool order.
	Parallel int
}

// Runner checks webhook tools one synthetic request each.
type Runner struct {
	dispatcher *dispatch.Dispatcher
	emitter    *events.Emitter
	log        logger.Logger
	timeout    time.Duration
	parallel   int
}

// NewRunner builds a runner. A nil emitter means no event output.
func NewRunner(opts Options, emitter *events.Emitter, log logger.Logger) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultToolTimeout
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	if log == nil {
		log = logger.NewNoop()
	}
	if emitter == nil {
		emitter = events.NewEmitter()
	}
	return &Runner{
		dispatcher: dispatch.NewDispatcher(opts.Timeout, log),
		emitter:    emitter,
		log:        log,
		timeout:    opts.Timeout,
		parallel:   opts.Parallel,
	}
}

// Run checks every tool and returns the aggregate. Tool failures land
// in the Summary, not the error; the error covers having nothing to do.
func (r *Runner) Run(ctx context.Context, tools []toolschema.WebhookTool) (*Summary, error) {
	if len(tools) == 0 {
		return nil, ErrNoTools
	}

	run := r.emitter.NewRun("probe", &events.RunStartEvent{ToolCount: len(tools), Parallel: r.parallel})
	r.emitter.Emit(run)
	start := time.Now()

	var results []Result
	if r.parallel > 1 {
		results = r.runParallel(ctx, run, tools)
	} else {
		results = r.runSequential(ctx, run, tools)
	}

	summary := &Summary{Duration: time.Since(start), Results: results}
	for _, res := range results {
		if res.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	end := r.emitter.NewChild(run, &events.RunEndEvent{
		Passed:     summary.Passed,
		Failed:     summary.Failed,
		DurationMS: summary.Duration.Milliseconds(),
		Duration:   summary.Duration,
	})
	r.emitter.Emit(end)
	return summary, nil
}

func (r *Runner) runSequential(ctx context.Context, run *events.Event, tools []toolschema.WebhookTool) []Result {
	results := make([]Result, len(tools))
	for i := range tools {
		tool := &tools[i]
		r.emitter.Emit(r.emitter.NewChild(run, &events.ToolCheckStartEvent{
			Tool:   tool.Name,
			Method: methodOf(tool),
			URL:    tool.APISchema.URL,
		}))
		results[i] = r.checkOne(ctx, tool)
		r.emitter.Emit(r.emitter.NewChild(run, checkEndEvent(results[i])))
	}
	return results
}

// runParallel fans the checks out over a bounded worker set. Start
// events are emitted up front and end events during assembly, so the
// event stream stays in tool order regardless of completion order.
func (r *Runner) runParallel(ctx context.Context, run *events.Event, tools []toolschema.WebhookTool) []Result {
	for i := range tools {
		tool := &tools[i]
		r.emitter.Emit(r.emitter.NewChild(run, &events.ToolCheckStartEvent{
			Tool:   tool.Name,
			Method: methodOf(tool),
			URL:    tool.APISchema.URL,
		}))
	}

	results := make([]Result, len(tools))
	sem := make(chan struct{}, r.parallel)
	var wg sync.WaitGroup

	for i := range tools {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[idx] = r.checkOne(ctx, &tools[idx])
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		r.emitter.Emit(r.emitter.NewChild(run, checkEndEvent(res)))
	}
	return results
}

// checkOne issues the single synthetic request for one tool. Every
// failure mode lands in the Result; nothing retries.
func (r *Runner) checkOne(ctx context.Context, tool *toolschema.WebhookTool) Result {
	res := Result{
		Tool:   tool.Name,
		Method: methodOf(tool),
		URL:    tool.APISchema.URL,
	}

	headers := http.Header{}
	for key, value := range tool.APISchema.RequestHeaders {
		headers.Set(key, value)
	}
	if auth := tool.APISchema.AuthConnection; auth != nil && auth.Type == toolschema.AuthTypeOAuth2 {
		token, err := r.fetchToken(ctx, auth)
		if err != nil {
			res.Detail = clip("oauth2 token: " + err.Error())
			return res
		}
		headers.Set("Authorization", "Bearer "+token)
	}

	// The payload goes out even when empty, so the route sees the same
	// application/json body the live agent would send.
	payload, err := json.Marshal(toolschema.SamplePayload(tool.APISchema.RequestBodySchema))
	if err != nil {
		res.Detail = clip(err.Error())
		return res
	}

	resp, err := r.dispatcher.SendRequest(ctx, res.Method, res.URL, payload, headers)
	res.Duration = resp.Duration
	if err != nil {
		res.Detail = clip(err.Error())
		return res
	}

	res.StatusCode = resp.StatusCode
	res.Passed = resp.OK()
	res.Detail = clip(strings.TrimSpace(string(resp.Body)))
	return res
}

// fetchToken runs the client-credentials grant a tool's auth_connection
// describes. Credentials travel in the form body, the way the Athena
// token endpoint expects them.
func (r *Runner) fetchToken(ctx context.Context, auth *toolschema.AuthConnection) (string, error) {
	cfg := &clientcredentials.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		TokenURL:     auth.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if auth.Scope != "" {
		cfg.Scopes = []string{auth.Scope}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: r.timeout})
	token, err := cfg.Token(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func checkEndEvent(res Result) *events.ToolCheckEndEvent {
	return &events.ToolCheckEndEvent{
		Tool:       res.Tool,
		Passed:     res.Passed,
		StatusCode: res.StatusCode,
		Detail:     res.Detail,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func methodOf(tool *toolschema.WebhookTool) string {
	method := strings.ToUpper(tool.APISchema.Method)
	if method == "" {
		method = http.MethodGet
	}
	return method
}

func clip(s string) string {
	if len(s) <= detailLimit {
		return s
	}
	return s[:detailLimit]
}
