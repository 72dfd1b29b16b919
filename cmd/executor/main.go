package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"idea-relay/handler"
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

	turns, err := app.NewTurnService(ctx, cfg, awsCfg, ps)
	if err != nil {
		slog.Error("failed to create turn service", "err", err)
		os.Exit(1)
	}

	e, err := handler.NewExecutor(turns)
	if err != nil {
		slog.Error("failed to create executor", "err", err)
		os.Exit(1)
	}

	lambda.Start(e.Handle)
}
