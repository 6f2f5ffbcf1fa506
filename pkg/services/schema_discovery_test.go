package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/llm"
	"github.com/amantaras/call-center-performance-sub001/pkg/models"
)

const discoveryResponse = "```json\n" + `[
  {"id": "Agent Name", "name": "agent_name", "display_name": "Agent", "type": "STRING", "semantic_role": "participant_1", "participant_label": "Agent", "required": true},
  {"id": "customer", "name": "customer", "display_name": "", "type": "string", "semantic_role": "participant_2"},
  {"id": "call_outcome", "name": "outcome", "display_name": "Call Outcome", "type": "select", "semantic_role": "classification", "select_options": ["paid", "refused"]},
  {"id": "amount_due", "name": "amount", "display_name": "Amount Due", "type": "number", "semantic_role": "metric"},
  {"id": "mystery", "name": "mystery", "display_name": "Mystery", "type": "blob", "semantic_role": "metric"},
  {"id": "notes", "name": "notes", "display_name": "Notes", "type": "string", "semantic_role": "made_up_role"}
]` + "\n```"

func discoverySamples() []map[string]any {
	return []map[string]any{
		{"agent_name": "Ann", "customer": "Bob", "outcome": "paid", "amount": 120.5},
	}
}

func newDiscoveryService(mock *llm.MockLLMClient) SchemaDiscoveryService {
	return NewSchemaDiscoveryService(mock, NewSchemaValidator(), zap.NewNop())
}

func TestDiscoverFieldsNormalizesProposal(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return discoveryResponse, nil
	}

	fields, err := newDiscoveryService(mock).DiscoverFields(context.Background(), discoverySamples(), "debt collection")
	require.NoError(t, err)

	// The unknown-type field was dropped; everything else survived.
	require.Len(t, fields, 5)

	agent := fields[0]
	assert.Equal(t, "agent_name", agent.ID, "id is slugified")
	assert.Equal(t, models.FieldTypeString, agent.Type, "type is lowercased")
	assert.Equal(t, models.RoleParticipant1, agent.SemanticRole)
	assert.True(t, agent.Required)

	customer := fields[1]
	assert.Equal(t, "Customer", customer.DisplayName, "display name derived from id")
	assert.Equal(t, "Customer", customer.ParticipantLabel, "participant label defaulted")

	assert.Equal(t, []string{"paid", "refused"}, fields[2].SelectOptions)
	assert.True(t, fields[3].EnableAnalytics, "metric fields get analytics enabled")
	assert.Equal(t, models.RoleFreeform, fields[4].SemanticRole, "unknown role downgraded to freeform")

	// Prompt carried the business context and the sample row.
	assert.Contains(t, mock.LastPrompt, "debt collection")
	assert.Contains(t, mock.LastPrompt, "agent_name")
	assert.NotEmpty(t, mock.LastSystemMessage)
}

func TestDiscoverFieldsRejectsBrokenRoleCardinality(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return `[{"id": "a", "name": "a", "display_name": "A", "type": "string", "semantic_role": "participant_1"}]`, nil
	}

	_, err := newDiscoveryService(mock).DiscoverFields(context.Background(), discoverySamples(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role validation")
}

func TestDiscoverFieldsErrorPaths(t *testing.T) {
	tests := []struct {
		name     string
		response string
		respErr  error
		samples  []map[string]any
		wantErr  string
	}{
		{
			name:    "no samples",
			samples: nil,
			wantErr: "at least one sample row",
		},
		{
			name:     "client error",
			samples:  discoverySamples(),
			respErr:  fmt.Errorf("boom"),
			wantErr:  "field discovery request",
		},
		{
			name:     "unparsable response",
			samples:  discoverySamples(),
			response: "sorry, I cannot help with that",
			wantErr:  "parse field discovery response",
		},
		{
			name:     "empty proposal",
			samples:  discoverySamples(),
			response: "[]",
			wantErr:  "no fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockLLMClient()
			mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
				return tt.response, tt.respErr
			}

			_, err := newDiscoveryService(mock).DiscoverFields(context.Background(), tt.samples, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiscoverFieldsCapsSamples(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return discoveryResponse, nil
	}

	samples := make([]map[string]any, 12)
	for i := range samples {
		samples[i] = map[string]any{"agent_name": fmt.Sprintf("agent-%d", i)}
	}

	_, err := newDiscoveryService(mock).DiscoverFields(context.Background(), samples, "")
	require.NoError(t, err)
	assert.NotContains(t, mock.LastPrompt, "agent-5", "rows past the cap are not sent")
	assert.Contains(t, mock.LastPrompt, "agent-4")
}

func TestDiscoverSchemaWrapsFields(t *testing.T) {
	mock := llm.NewMockLLMClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temperature float64) (string, error) {
		return discoveryResponse, nil
	}
	svc := newDiscoveryService(mock)

	schema, err := svc.DiscoverSchema(context.Background(), "Telecom Support", "telecom", discoverySamples())
	require.NoError(t, err)
	assert.Equal(t, "telecom_support", schema.ID)
	assert.Equal(t, "1.0.0", schema.Version)
	assert.Equal(t, "telecom", schema.BusinessContext)
	assert.Len(t, schema.Fields, 5)

	_, err = svc.DiscoverSchema(context.Background(), "", "telecom", discoverySamples())
	require.Error(t, err)
}
