package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"idea-relay/internal/app"
	"idea-relay/internal/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(cfg, os.Stdout))

	if err := cfg.ValidateReceiver(); err != nil {
		slog.Error("invalid receiver config", "err", err)
		os.Exit(1)
	}

	awsCfg, err := app.LoadAWS(ctx, cfg)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}
	ps, err := app.NewParamStore(awsCfg)
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	dispatcher, err := app.NewLambdaDispatcher(cfg, awsCfg)
	if err != nil {
		slog.Error("failed to create lambda dispatcher", "err", err)
		os.Exit(1)
	}

	r, err := app.NewReceiver(ctx, cfg, ps, dispatcher)
	if err != nil {
		slog.Error("failed to create receiver", "err", err)
		os.Exit(1)
	}

	lambda.Start(r.Handle)
}
