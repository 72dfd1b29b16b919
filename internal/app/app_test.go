package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"

	"idea-relay/internal/config"
	"idea-relay/internal/integrations/bedrock"
	"idea-relay/internal/integrations/openai"
	"idea-relay/internal/integrations/paramstore"
)

func testParamStore(t *testing.T) *paramstore.Client {
	t.Helper()
	ps, err := NewParamStore(aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
	return ps
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&config.Config{LogLevel: "warn"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "thread_ts", "1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "1", line["thread_ts"])
}

func TestNewModelClient_SelectsProvider(t *testing.T) {
	cfg := &config.Config{ModelProvider: config.ProviderBedrock, ModelID: "anthropic.claude-3-haiku", ModelMaxTokens: 1024}
	m, err := newModelClient(cfg, aws.Config{Region: "us-east-1"}, testParamStore(t))
	require.NoError(t, err)
	require.IsType(t, &bedrock.Client{}, m)

	cfg = &config.Config{ModelProvider: config.ProviderOpenAI, ModelID: "gpt-4o-mini", ModelMaxTokens: 1024, ParamPrefix: "/idea-relay"}
	m, err = newModelClient(cfg, aws.Config{Region: "us-east-1"}, testParamStore(t))
	require.NoError(t, err)
	require.IsType(t, &openai.Client{}, m)
}

func TestNewTurnService_InvalidConfig(t *testing.T) {
	_, err := NewTurnService(context.Background(), &config.Config{}, aws.Config{Region: "us-east-1"}, testParamStore(t))
	require.ErrorContains(t, err, "dynamodb_table_sessions")
}

func TestNewTurnService_Wires(t *testing.T) {
	cfg := &config.Config{
		ModelProvider:      config.ProviderBedrock,
		ModelID:            "anthropic.claude-3-haiku",
		ModelMaxTokens:     1024,
		SessionsTable:      "sessions",
		SessionExpireHours: 24,
		ProductPlanBaseURL: "https://app.productplan.com/api",
		ProductPlanAppURL:  "https://app.productplan.com",
		ProductPlanToken:   "pp",
		SlackOAuthToken:    "xoxb",
	}
	svc, err := NewTurnService(context.Background(), cfg, aws.Config{Region: "us-east-1"}, testParamStore(t))
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestNewLambdaDispatcher(t *testing.T) {
	_, err := NewLambdaDispatcher(&config.Config{WorkerFunctionName: "execute-slack-event", WorkerInvocationType: "Event"}, aws.Config{Region: "us-east-1"})
	require.NoError(t, err)
}
