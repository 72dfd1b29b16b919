package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/urfave/cli/v2"

	"idea-relay/handler"
	"idea-relay/internal/app"
	"idea-relay/internal/config"
	"idea-relay/internal/domain"
	"idea-relay/internal/integrations/paramstore"
	"idea-relay/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	a := &cli.App{
		Name:  "idea-relay",
		Usage: "Run the Slack idea relay outside Lambda",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			turnCommand(),
		},
	}

	if err := a.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Accept Events API webhooks and process turns in-process",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":3000",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			env, err := setup(ctx, c.String("config"))
			if err != nil {
				return err
			}

			pool, err := worker.New(func(ctx context.Context, ev domain.TurnEvent) error {
				out, err := env.exec.Handle(ctx, ev)
				if err != nil {
					return err
				}
				if !out.OK {
					slog.Warn("turn finished without a reply", "thread_ts", ev.ThreadTS)
				}
				return nil
			})
			if err != nil {
				return err
			}

			r, err := app.NewReceiver(ctx, env.cfg, env.ps, pool)
			if err != nil {
				return err
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(middleware.Recover())
			handler.RegisterRoutes(e, r)

			go func() {
				if err := e.Start(c.String("addr")); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("server stopped", "err", err)
				}
			}()
			slog.Info("listening", "addr", c.String("addr"))

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			srvErr := e.Shutdown(shutdownCtx)
			poolErr := pool.Close(shutdownCtx)
			return errors.Join(srvErr, poolErr)
		},
	}
}

func turnCommand() *cli.Command {
	return &cli.Command{
		Name:  "turn",
		Usage: "Process a single mention synchronously and print the outcome",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "channel", Required: true},
			&cli.StringFlag{Name: "thread", Required: true, Usage: "Thread timestamp"},
			&cli.StringFlag{Name: "user", Required: true},
			&cli.StringFlag{Name: "text", Required: true},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c.Context, c.String("config"))
			if err != nil {
				return err
			}
			out, err := env.exec.Handle(c.Context, domain.TurnEvent{
				Channel:  c.String("channel"),
				ThreadTS: c.String("thread"),
				User:     c.String("user"),
				Text:     c.String("text"),
			})
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
}

type services struct {
	cfg  *config.Config
	ps   *paramstore.Client
	exec *handler.Executor
}

// setup loads configuration and builds the turn executor.
func setup(ctx context.Context, path string) (*services, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(app.NewLogger(cfg, os.Stderr))

	awsCfg, err := app.LoadAWS(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ps, err := app.NewParamStore(awsCfg)
	if err != nil {
		return nil, err
	}

	turns, err := app.NewTurnService(ctx, cfg, awsCfg, ps)
	if err != nil {
		return nil, err
	}
	exec, err := handler.NewExecutor(turns)
	if err != nil {
		return nil, err
	}
	return &services{cfg: cfg, ps: ps, exec: exec}, nil
}
