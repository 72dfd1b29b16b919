package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// Config is the process configuration. It is built once at startup and
// passed to the constructors that need it.
type Config struct {
	AWSRegion string `koanf:"aws_region"`
	LogLevel  string `koanf:"log_level"`

	ModelProvider    string  `koanf:"model_provider"`
	ModelID          string  `koanf:"bedrock_foundation_model"`
	ModelMaxTokens   int     `koanf:"model_max_tokens"`
	ModelTemperature float64 `koanf:"model_temperature"`
	ModelTopK        int     `koanf:"model_top_k"`
	OpenAIBaseURL    string  `koanf:"openai_base_url"`

	SessionsTable      string `koanf:"dynamodb_table_sessions"`
	SessionExpireHours int    `koanf:"session_expire_hours"`

	WorkerFunctionName   string `koanf:"lambda_function_name"`
	WorkerInvocationType string `koanf:"lambda_invocation_type"`

	ProductPlanToken   string `koanf:"productplan_api_token"`
	ProductPlanBaseURL string `koanf:"productplan_base_url"`
	ProductPlanAppURL  string `koanf:"productplan_app_url"`

	SlackApplicationID string `koanf:"slack_application_id"`
	SlackOAuthToken    string `koanf:"slack_oauth_token"`
	SlackSigningSecret string `koanf:"slack_signing_secret"`

	ParamPrefix string `koanf:"param_prefix"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_level":              "info",
		"model_provider":         ProviderBedrock,
		"model_max_tokens":       4096,
		"model_temperature":      0.4,
		"model_top_k":            250,
		"openai_base_url":        "https://api.openai.com/v1",
		"session_expire_hours":   24,
		"lambda_invocation_type": "Event",
		"productplan_base_url":   "https://app.productplan.com/api",
		"productplan_app_url":    "https://app.productplan.com",
	}
}

// Load builds a Config from defaults, an optional TOML file and the
// environment, in increasing order of precedence. Environment variable names
// are matched case-insensitively against the koanf keys.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.ModelProvider = strings.ToLower(strings.TrimSpace(c.ModelProvider))
	c.ParamPrefix = strings.TrimRight(strings.TrimSpace(c.ParamPrefix), "/")
	c.ProductPlanBaseURL = strings.TrimRight(strings.TrimSpace(c.ProductPlanBaseURL), "/")
	c.ProductPlanAppURL = strings.TrimRight(strings.TrimSpace(c.ProductPlanAppURL), "/")
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidateReceiver checks the settings the webhook receiver needs.
func (c *Config) ValidateReceiver() error {
	var errs []error
	if strings.TrimSpace(c.SlackApplicationID) == "" {
		errs = append(errs, errors.New("slack_application_id is required"))
	}
	if strings.TrimSpace(c.WorkerFunctionName) == "" {
		errs = append(errs, errors.New("lambda_function_name is required"))
	}
	switch c.WorkerInvocationType {
	case "Event", "RequestResponse", "DryRun":
	default:
		errs = append(errs, fmt.Errorf("unsupported lambda_invocation_type %q", c.WorkerInvocationType))
	}
	return wrap(errs)
}

// ValidateExecutor checks the settings the turn processor needs. Call it
// after ResolveSecrets.
func (c *Config) ValidateExecutor() error {
	var errs []error
	switch c.ModelProvider {
	case ProviderBedrock, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unsupported model_provider %q", c.ModelProvider))
	}
	if strings.TrimSpace(c.ModelID) == "" {
		errs = append(errs, errors.New("bedrock_foundation_model is required"))
	}
	if c.ModelProvider == ProviderOpenAI && c.ParamPrefix == "" {
		errs = append(errs, errors.New("param_prefix is required for the openai provider"))
	}
	if c.ModelMaxTokens <= 0 {
		errs = append(errs, errors.New("model_max_tokens must be positive"))
	}
	if strings.TrimSpace(c.SessionsTable) == "" {
		errs = append(errs, errors.New("dynamodb_table_sessions is required"))
	}
	if c.SessionExpireHours <= 0 {
		errs = append(errs, errors.New("session_expire_hours must be positive"))
	}
	if c.ProductPlanBaseURL == "" {
		errs = append(errs, errors.New("productplan_base_url is required"))
	}
	if strings.TrimSpace(c.ProductPlanToken) == "" {
		errs = append(errs, errors.New("productplan_api_token is required"))
	}
	if strings.TrimSpace(c.SlackOAuthToken) == "" {
		errs = append(errs, errors.New("slack_oauth_token is required"))
	}
	return wrap(errs)
}

func wrap(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// TokenGetter resolves a {"token": "..."} parameter by name.
type TokenGetter interface {
	GetToken(ctx context.Context, name string) (string, error)
}

// ResolveExecutorSecrets fills the Slack bot token and the idea service
// token from the parameter store under ParamPrefix when the environment left
// them empty. Without a prefix it is a no-op.
func (c *Config) ResolveExecutorSecrets(ctx context.Context, g TokenGetter) error {
	if c.ParamPrefix == "" {
		return nil
	}
	if g == nil {
		return errors.New("config: token getter must not be nil")
	}
	secrets := []struct {
		dst  *string
		name string
	}{
		{&c.SlackOAuthToken, "/slack-oauth-token"},
		{&c.ProductPlanToken, "/productplan-api-token"},
	}
	for _, s := range secrets {
		if strings.TrimSpace(*s.dst) != "" {
			continue
		}
		v, err := g.GetToken(ctx, c.ParamPrefix+s.name)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", s.name, err)
		}
		*s.dst = v
	}
	return nil
}

// ResolveSigningSecret fills SlackSigningSecret from the parameter store.
// The secret is optional, so a failed lookup leaves it empty.
func (c *Config) ResolveSigningSecret(ctx context.Context, g TokenGetter) {
	if c.ParamPrefix == "" || g == nil || strings.TrimSpace(c.SlackSigningSecret) != "" {
		return
	}
	v, err := g.GetToken(ctx, c.ParamPrefix+"/slack-signing-secret")
	if err != nil {
		slog.Warn("slack signing secret not resolved, signature verification disabled", "err", err)
		return
	}
	c.SlackSigningSecret = v
}
