package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"idea-relay/internal/domain"
	"idea-relay/internal/usecase"
)

// TurnProcessor runs one conversation turn.
type TurnProcessor interface {
	Process(ctx context.Context, in domain.TurnEvent) (usecase.TurnOutput, error)
}

// Executor is the worker entry point invoked with a dispatched TurnEvent.
type Executor struct {
	turns TurnProcessor
}

func NewExecutor(turns TurnProcessor) (*Executor, error) {
	if turns == nil {
		return nil, errors.New("handler: turn processor must not be nil")
	}
	return &Executor{turns: turns}, nil
}

func (e *Executor) Handle(ctx context.Context, ev domain.TurnEvent) (usecase.TurnOutput, error) {
	if strings.TrimSpace(ev.Channel) == "" || strings.TrimSpace(ev.ThreadTS) == "" {
		return usecase.TurnOutput{}, errors.New("handler: event is missing channel or thread")
	}
	slog.InfoContext(ctx, "received event", "channel", ev.Channel, "thread_ts", ev.ThreadTS, "user", ev.User)
	return e.turns.Process(ctx, ev)
}
