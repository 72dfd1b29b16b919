package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"idea-relay/handler"
	"idea-relay/internal/config"
	"idea-relay/internal/integrations/bedrock"
	"idea-relay/internal/integrations/lambdafn"
	"idea-relay/internal/integrations/openai"
	"idea-relay/internal/integrations/paramstore"
	"idea-relay/internal/integrations/productplan"
	slackclient "idea-relay/internal/integrations/slack"
	"idea-relay/internal/repository"
	"idea-relay/internal/usecase"
)

// NewLogger returns a JSON logger at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// LoadAWS loads the SDK configuration, pinning the region when one is set.
func LoadAWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("app: load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewParamStore returns the SSM-backed secret client.
func NewParamStore(awsCfg aws.Config) (*paramstore.Client, error) {
	return paramstore.New(awsssm.NewFromConfig(awsCfg))
}

// NewReceiver builds the webhook receiver around dispatcher.
func NewReceiver(ctx context.Context, cfg *config.Config, ps *paramstore.Client, d handler.Dispatcher) (*handler.Receiver, error) {
	if ps != nil {
		cfg.ResolveSigningSecret(ctx, ps)
	}
	if cfg.SlackSigningSecret == "" {
		slog.Warn("slack signing secret not configured, request signatures are not verified")
	}
	return handler.NewReceiver(d, cfg.SlackApplicationID, cfg.SlackSigningSecret)
}

// NewLambdaDispatcher returns the dispatcher that invokes the worker function.
func NewLambdaDispatcher(cfg *config.Config, awsCfg aws.Config) (*lambdafn.Client, error) {
	return lambdafn.New(awslambda.NewFromConfig(awsCfg), cfg.WorkerFunctionName, cfg.WorkerInvocationType)
}

// NewTurnService resolves secrets, validates the executor settings and wires
// the turn processor to its collaborators.
func NewTurnService(ctx context.Context, cfg *config.Config, awsCfg aws.Config, ps *paramstore.Client) (*usecase.TurnService, error) {
	if err := cfg.ResolveExecutorSecrets(ctx, ps); err != nil {
		return nil, err
	}
	if err := cfg.ValidateExecutor(); err != nil {
		return nil, err
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.SessionsTable, cfg.SessionExpireHours)
	if err != nil {
		return nil, err
	}
	model, err := newModelClient(cfg, awsCfg, ps)
	if err != nil {
		return nil, err
	}
	ideas, err := productplan.NewClient(cfg.ProductPlanBaseURL, cfg.ProductPlanToken, productplan.WithAppURL(cfg.ProductPlanAppURL))
	if err != nil {
		return nil, err
	}
	chat, err := slackclient.NewFromToken(cfg.SlackOAuthToken)
	if err != nil {
		return nil, err
	}
	return usecase.NewTurnService(store, model, ideas, chat)
}

func newModelClient(cfg *config.Config, awsCfg aws.Config, ps *paramstore.Client) (usecase.ModelClient, error) {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		return openai.NewClient(ps, cfg.ParamPrefix, cfg.ModelID,
			openai.WithBaseURL(cfg.OpenAIBaseURL),
			openai.WithGeneration(cfg.ModelMaxTokens, cfg.ModelTemperature),
		)
	default:
		return bedrock.New(bedrockruntime.NewFromConfig(awsCfg), cfg.ModelID, bedrock.Params{
			MaxTokens:   cfg.ModelMaxTokens,
			Temperature: cfg.ModelTemperature,
			TopK:        cfg.ModelTopK,
		})
	}
}
