package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"idea-relay/internal/domain"
)

const (
	alreadyRecordedFormat  = "The idea \"%s\" has already been recorded. Please start a new thread to submit another idea."
	lookupErrorMessage     = "I'm sorry, but an error occurred while gathering your user information. Please try again later."
	processingErrorMessage = "I'm sorry, but an error occurred while processing your idea. Please try again later."
	ideaLinkFormat         = "%s\n\nYou can view your idea here: %s"
)

type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	PutSession(ctx context.Context, sessionID string, s domain.Session) error
}

type ModelClient interface {
	Complete(ctx context.Context, system string, history []domain.ChatMessage) (string, error)
}

type IdeaSubmitter interface {
	SubmitIdea(ctx context.Context, idea domain.Idea) (int64, error)
	IdeaURL(id int64) string
}

type ChatClient interface {
	PostMessage(ctx context.Context, channel, text, threadTS string) error
	LookupUser(ctx context.Context, userID string) (domain.UserProfile, error)
}

// TurnOutput is the worker result.
type TurnOutput struct {
	OK bool `json:"ok"`
}

// TurnService processes one inbound mention against the thread's session.
type TurnService struct {
	store SessionStore
	model ModelClient
	ideas IdeaSubmitter
	chat  ChatClient
}

func NewTurnService(store SessionStore, model ModelClient, ideas IdeaSubmitter, chat ChatClient) (*TurnService, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if model == nil {
		return nil, errors.New("usecase: model client must not be nil")
	}
	if ideas == nil {
		return nil, errors.New("usecase: idea submitter must not be nil")
	}
	if chat == nil {
		return nil, errors.New("usecase: chat client must not be nil")
	}
	return &TurnService{store: store, model: model, ideas: ideas, chat: chat}, nil
}

// Process runs one turn and posts exactly one reply in the thread. A turn
// that fails is reported to the user and yields OK=false with a nil error;
// an error is returned only when that failure notice cannot be posted.
func (s *TurnService) Process(ctx context.Context, in domain.TurnEvent) (TurnOutput, error) {
	log := slog.With("thread_ts", in.ThreadTS, "channel", in.Channel)

	session := s.establishSession(ctx, log, in.ThreadTS)
	if session.Complete {
		msg := fmt.Sprintf(alreadyRecordedFormat, session.Idea.Name)
		if err := s.chat.PostMessage(ctx, in.Channel, msg, in.ThreadTS); err != nil {
			log.ErrorContext(ctx, "error posting message", "err", err)
			return TurnOutput{OK: false}, nil
		}
		log.InfoContext(ctx, "session is complete, no action taken", "idea", session.Idea.Name)
		return TurnOutput{OK: true}, nil
	}

	reply, err := s.runTurn(ctx, log, in, session)
	if err != nil {
		return s.reportFailure(ctx, log, in, err)
	}

	if err := s.chat.PostMessage(ctx, in.Channel, reply, in.ThreadTS); err != nil {
		// No second notice: it would most likely fail the same way.
		log.ErrorContext(ctx, "error posting message", "err", err)
		return TurnOutput{OK: false}, nil
	}
	return TurnOutput{OK: true}, nil
}

// establishSession returns the stored session, or a fresh one when the thread
// has none or it cannot be read.
func (s *TurnService) establishSession(ctx context.Context, log *slog.Logger, threadTS string) domain.Session {
	session, err := s.store.GetSession(ctx, threadTS)
	if err != nil {
		log.DebugContext(ctx, "starting new session", "err", err)
		return domain.NewSession()
	}
	return session
}

func (s *TurnService) runTurn(ctx context.Context, log *slog.Logger, in domain.TurnEvent, session domain.Session) (string, error) {
	history := make([]domain.ChatMessage, 0, len(session.History)+2)
	history = append(history, session.History...)
	history = append(history, domain.ChatMessage{Content: in.Text, Role: domain.RoleUser})

	profile, err := s.chat.LookupUser(ctx, in.User)
	if err != nil {
		return "", newError(ErrorUpstream, "slack_lookup_error", err)
	}
	if !profile.OK {
		return "", newError(ErrorLookupFailed, "slack_lookup_rejected", nil)
	}

	system, err := renderSystemPrompt(compileIdeaPrompt, promptData{Idea: session.Idea, History: history})
	if err != nil {
		return "", newError(ErrorInternal, "prompt_render_error", err)
	}
	raw, err := s.model.Complete(ctx, system, history)
	if err != nil {
		return "", newError(ErrorUpstream, "model_error", err)
	}
	resp, err := parseModelResponse(raw)
	if err != nil {
		log.ErrorContext(ctx, "error parsing model response", "response", raw)
		return "", newError(ErrorModelMalformed, "model_malformed_response", err)
	}
	log.InfoContext(ctx, "model response", "complete", resp.Complete)

	var patch domain.Idea
	if resp.Idea != nil {
		patch = *resp.Idea
	}
	idea := domain.MergeIdea(session.Idea, patch, profile)

	var link string
	if resp.Complete {
		id, err := s.ideas.SubmitIdea(ctx, idea)
		if err != nil {
			return "", newError(ErrorUpstream, "idea_submit_error", err)
		}
		link = s.ideas.IdeaURL(id)
		log.InfoContext(ctx, "idea submitted", "idea_id", id)
	}

	history = append(history, domain.ChatMessage{Content: resp.Message, Role: domain.RoleAssistant})
	next := domain.Session{
		Complete: resp.Complete,
		History:  domain.TruncateHistory(history),
		Idea:     idea,
	}
	if err := s.store.PutSession(ctx, in.ThreadTS, next); err != nil {
		return "", newError(ErrorInternal, "dynamodb_write_error", err)
	}

	if link != "" {
		return fmt.Sprintf(ideaLinkFormat, resp.Message, link), nil
	}
	return resp.Message, nil
}

func (s *TurnService) reportFailure(ctx context.Context, log *slog.Logger, in domain.TurnEvent, err error) (TurnOutput, error) {
	msg := processingErrorMessage
	var ucErr *Error
	if errors.As(err, &ucErr) {
		log.ErrorContext(ctx, "error executing turn", "code", ucErr.Code, "reason", ucErr.Reason, "err", err)
		if ucErr.Code == ErrorLookupFailed {
			msg = lookupErrorMessage
		}
	} else {
		log.ErrorContext(ctx, "error executing turn", "err", err)
	}

	if postErr := s.chat.PostMessage(ctx, in.Channel, msg, in.ThreadTS); postErr != nil {
		return TurnOutput{OK: false}, fmt.Errorf("usecase: post failure notice: %w", errors.Join(postErr, err))
	}
	return TurnOutput{OK: false}, nil
}
