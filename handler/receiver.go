package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"idea-relay/internal/domain"
)

const retryNumHeader = "X-Slack-Retry-Num"

// Dispatcher hands a turn to the worker without waiting for its outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.TurnEvent) error
}

// envelope is the Events API outer payload. Only app mentions are accepted,
// so the inner event decodes straight into that shape.
type envelope struct {
	Type      string                      `json:"type"`
	Challenge string                      `json:"challenge"`
	APIAppID  string                      `json:"api_app_id"`
	Event     slackevents.AppMentionEvent `json:"event"`
}

// Receiver validates Events API webhooks and dispatches app mentions.
type Receiver struct {
	dispatcher    Dispatcher
	appID         string
	signingSecret string
}

// NewReceiver creates a Receiver. When signingSecret is empty request
// signatures are not checked.
func NewReceiver(d Dispatcher, appID, signingSecret string) (*Receiver, error) {
	if d == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, errors.New("handler: application id must not be empty")
	}
	return &Receiver{dispatcher: d, appID: appID, signingSecret: signingSecret}, nil
}

// Handle acknowledges the webhook. A 200 means the mention was accepted for
// processing, not that a reply was sent.
func (r *Receiver) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	headers := toHTTPHeader(req.Headers)
	corrID := headers.Get(correlationHeader)
	if corrID == "" {
		corrID = newUUID()
	}
	log := slog.With("correlation_id", corrID)

	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return badRequest(corrID, "Invalid body encoding"), nil
		}
		body = string(decoded)
	}

	if r.signingSecret != "" {
		if err := verifySignature(headers, body, r.signingSecret); err != nil {
			log.WarnContext(ctx, "rejected unsigned request", "err", err)
			return unauthorized(corrID), nil
		}
	}

	var payload envelope
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return badRequest(corrID, err.Error()), nil
	}

	if payload.Type == string(slackevents.URLVerification) {
		log.InfoContext(ctx, "responding to challenge")
		return respond(http.StatusOK, corrID, challengeBody{Challenge: payload.Challenge}), nil
	}

	if n, err := strconv.Atoi(headers.Get(retryNumHeader)); err == nil && n > 0 {
		log.InfoContext(ctx, "ignoring redelivered event", "retry_num", n)
		return ok(corrID), nil
	}

	if payload.APIAppID != r.appID {
		log.WarnContext(ctx, "unrecognized application", "actual", payload.APIAppID, "expected", r.appID)
		return badRequest(corrID, "Unrecognized application"), nil
	}
	if payload.Type != string(slackevents.CallbackEvent) || payload.Event.Type != string(slackevents.AppMention) {
		log.WarnContext(ctx, "unrecognized event type", "callback_type", payload.Type, "event_type", payload.Event.Type)
		return badRequest(corrID, "Unrecognized event"), nil
	}

	threadTS := payload.Event.ThreadTimeStamp
	if threadTS == "" {
		threadTS = payload.Event.TimeStamp
	}
	ev := domain.TurnEvent{
		Channel:  payload.Event.Channel,
		Text:     payload.Event.Text,
		ThreadTS: threadTS,
		User:     payload.Event.User,
	}
	if err := r.dispatcher.Dispatch(ctx, ev); err != nil {
		log.ErrorContext(ctx, "error dispatching event", "thread_ts", threadTS, "err", err)
		return internalError(corrID), nil
	}
	log.InfoContext(ctx, "dispatched mention", "thread_ts", threadTS, "channel", ev.Channel)
	return ok(corrID), nil
}

func verifySignature(headers http.Header, body, secret string) error {
	sv, err := slack.NewSecretsVerifier(headers, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write([]byte(body)); err != nil {
		return err
	}
	return sv.Ensure()
}

// toHTTPHeader canonicalizes API Gateway's lower-cased header map.
func toHTTPHeader(in map[string]string) http.Header {
	h := make(http.Header, len(in))
	for k, v := range in {
		h.Set(k, v)
	}
	return h
}

var newUUID = func() string {
	return uuid.NewString()
}
