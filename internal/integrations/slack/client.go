package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"idea-relay/internal/domain"
)

// slackAPI is the subset of *slack.Client used here.
type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// Client posts thread replies and looks up user profiles.
type Client struct {
	api slackAPI
}

// New wraps an existing Slack API client.
func New(api slackAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("slack: api must not be nil")
	}
	return &Client{api: api}, nil
}

// NewFromToken builds a Client for a bot OAuth token.
func NewFromToken(token string, opts ...slack.Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("slack: oauth token must not be empty")
	}
	return New(slack.New(token, opts...))
}

// PostMessage posts text to a channel, inside threadTS when it is set.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := c.api.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("slack: post message to %s: %w", channel, err)
	}
	return nil
}

// LookupUser returns the profile of a user. A lookup the platform rejects
// (deleted user, missing scope, ...) yields OK=false and no error; transport
// failures are returned as errors.
func (c *Client) LookupUser(ctx context.Context, userID string) (domain.UserProfile, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		var rejected slack.SlackErrorResponse
		if errors.As(err, &rejected) {
			return domain.UserProfile{OK: false}, nil
		}
		return domain.UserProfile{}, fmt.Errorf("slack: users.info %s: %w", userID, err)
	}
	if user == nil {
		return domain.UserProfile{OK: false}, nil
	}
	return domain.UserProfile{
		OK:       true,
		Email:    user.Profile.Email,
		RealName: user.Profile.RealName,
	}, nil
}
