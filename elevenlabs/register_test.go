package elevenlabs_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/tochi12ob/clini/events"
	"github.com/tochi12ob/clini/toolschema"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []*events.Event
}

func (o *recordingObserver) OnEvent(event *events.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func TestRegisterAll(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	// The second tool is rejected as a duplicate; the run must carry on
	// and register the third.
	httpmock.RegisterResponder(http.MethodPost, "https://api.elevenlabs.io/v1/convai/tools",
		func(req *http.Request) (*http.Response, error) {
			payload, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var sent struct {
				ToolConfig struct {
					Name string `json:"name"`
				} `json:"tool_config"`
			}
			require.NoError(t, json.Unmarshal(payload, &sent))

			if sent.ToolConfig.Name == "athena_1_book_appointment" {
				return httpmock.NewStringResponse(http.StatusUnprocessableEntity, `{"detail":"duplicate"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusCreated, `{"id":"tool_`+sent.ToolConfig.Name+`"}`), nil
		})

	observer := &recordingObserver{}
	emitter := events.NewEmitter()
	emitter.AddObserver(observer)

	tools := []toolschema.WebhookTool{
		{Name: "athena_1_check_availability"},
		{Name: "athena_1_book_appointment"},
		{Name: "athena_1_search_patients"},
	}

	summary, err := newTestClient(t).RegisterAll(context.Background(), tools, emitter)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Registered)
	require.Equal(t, 1, summary.Failed)
	require.False(t, summary.AllRegistered())
	require.Equal(t, 3, httpmock.GetTotalCallCount())

	require.True(t, summary.Results[0].Registered)
	require.Equal(t, "tool_athena_1_check_availability", summary.Results[0].ToolID)
	require.False(t, summary.Results[1].Registered)
	require.Contains(t, summary.Results[1].Detail, "duplicate")
	require.True(t, summary.Results[2].Registered)

	types := make([]events.EventType, 0, len(observer.events))
	for _, ev := range observer.events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []events.EventType{
		events.RunStart,
		events.ToolRegisterStart,
		events.ToolRegisterEnd,
		events.ToolRegisterStart,
		events.ToolRegisterEnd,
		events.ToolRegisterStart,
		events.ToolRegisterEnd,
		events.RunEnd,
	}, types)
}

func TestRegisterAllNoTools(t *testing.T) {
	_, err := newTestClient(t).RegisterAll(context.Background(), nil, nil)
	require.ErrorIs(t, err, toolschema.ErrNoTools)
}
