package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	vals  map[string]string
	calls []string
}

func (f *fakeTokens) GetToken(_ context.Context, name string) (string, error) {
	f.calls = append(f.calls, name)
	v, ok := f.vals[name]
	if !ok {
		return "", errors.New("parameter not found")
	}
	return v, nil
}

func executorEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BEDROCK_FOUNDATION_MODEL", "anthropic.claude-3-haiku")
	t.Setenv("DYNAMODB_TABLE_SESSIONS", "sessions")
	t.Setenv("PRODUCTPLAN_API_TOKEN", "pp-token")
	t.Setenv("SLACK_OAUTH_TOKEN", "xoxb-token")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ProviderBedrock, cfg.ModelProvider)
	require.Equal(t, 4096, cfg.ModelMaxTokens)
	require.InDelta(t, 0.4, cfg.ModelTemperature, 1e-9)
	require.Equal(t, 250, cfg.ModelTopK)
	require.Equal(t, 24, cfg.SessionExpireHours)
	require.Equal(t, "Event", cfg.WorkerInvocationType)
	require.Equal(t, "https://app.productplan.com", cfg.ProductPlanAppURL)
	require.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Environment(t *testing.T) {
	executorEnv(t)
	t.Setenv("SESSION_EXPIRE_HOURS", "48")
	t.Setenv("MODEL_TEMPERATURE", "0.1")
	t.Setenv("PARAM_PREFIX", "/idea-relay/")
	t.Setenv("PRODUCTPLAN_BASE_URL", "https://example.test/api/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "anthropic.claude-3-haiku", cfg.ModelID)
	require.Equal(t, "sessions", cfg.SessionsTable)
	require.Equal(t, 48, cfg.SessionExpireHours)
	require.InDelta(t, 0.1, cfg.ModelTemperature, 1e-9)
	require.Equal(t, "/idea-relay", cfg.ParamPrefix)
	require.Equal(t, "https://example.test/api", cfg.ProductPlanBaseURL)
	require.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	require.NoError(t, cfg.ValidateExecutor())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
slack_application_id = "A-FILE"
lambda_function_name = "execute-slack-event"
session_expire_hours = 12
`), 0o600))
	t.Setenv("SLACK_APPLICATION_ID", "A-ENV")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "A-ENV", cfg.SlackApplicationID)
	require.Equal(t, "execute-slack-event", cfg.WorkerFunctionName)
	require.Equal(t, 12, cfg.SessionExpireHours)
	require.NoError(t, cfg.ValidateReceiver())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidateReceiver(t *testing.T) {
	cfg := &Config{WorkerInvocationType: "Sometimes"}
	err := cfg.ValidateReceiver()
	require.Error(t, err)
	require.Contains(t, err.Error(), "slack_application_id")
	require.Contains(t, err.Error(), "lambda_function_name")
	require.Contains(t, err.Error(), "lambda_invocation_type")
}

func TestValidateExecutor(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	err = cfg.ValidateExecutor()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bedrock_foundation_model")
	require.Contains(t, err.Error(), "dynamodb_table_sessions")
	require.Contains(t, err.Error(), "productplan_api_token")
	require.Contains(t, err.Error(), "slack_oauth_token")

	executorEnv(t)
	t.Setenv("MODEL_PROVIDER", "OpenAI")
	cfg, err = Load("")
	require.NoError(t, err)
	err = cfg.ValidateExecutor()
	require.Error(t, err)
	require.Contains(t, err.Error(), "param_prefix")
}

func TestResolveExecutorSecrets(t *testing.T) {
	cfg := &Config{ParamPrefix: "/p", SlackOAuthToken: "from-env"}
	g := &fakeTokens{vals: map[string]string{"/p/productplan-api-token": "pp-ssm"}}

	require.NoError(t, cfg.ResolveExecutorSecrets(context.Background(), g))
	require.Equal(t, "from-env", cfg.SlackOAuthToken)
	require.Equal(t, "pp-ssm", cfg.ProductPlanToken)
	require.Equal(t, []string{"/p/productplan-api-token"}, g.calls)
}

func TestResolveExecutorSecrets_NoPrefix(t *testing.T) {
	cfg := &Config{}
	g := &fakeTokens{}
	require.NoError(t, cfg.ResolveExecutorSecrets(context.Background(), g))
	require.Empty(t, g.calls)
}

func TestResolveExecutorSecrets_MissingParameter(t *testing.T) {
	cfg := &Config{ParamPrefix: "/p"}
	err := cfg.ResolveExecutorSecrets(context.Background(), &fakeTokens{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "slack-oauth-token")
}

func TestResolveSigningSecret(t *testing.T) {
	cfg := &Config{ParamPrefix: "/p"}
	cfg.ResolveSigningSecret(context.Background(), &fakeTokens{vals: map[string]string{"/p/slack-signing-secret": "s3cret"}})
	require.Equal(t, "s3cret", cfg.SlackSigningSecret)

	cfg = &Config{ParamPrefix: "/p"}
	cfg.ResolveSigningSecret(context.Background(), &fakeTokens{})
	require.Empty(t, cfg.SlackSigningSecret)
}
