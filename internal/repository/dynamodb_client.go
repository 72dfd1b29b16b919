package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"idea-relay/internal/domain"
)

// ErrSessionNotFound is returned by GetSession when no record exists for the
// thread, including records DynamoDB has not yet swept after expiry.
var ErrSessionNotFound = errors.New("repository: session not found")

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// sessionRecord is the table item. Data holds the JSON-encoded session and
// ExpireAt is the table's TTL attribute in epoch seconds.
type sessionRecord struct {
	SessionID string `dynamodbav:"SessionId"`
	Data      string `dynamodbav:"Data"`
	ExpireAt  int64  `dynamodbav:"ExpireAt"`
}

// Client wraps a DynamoDB table of chat sessions keyed by thread.
type Client struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// New creates a new repository Client. expireHours sets how long a session
// survives after its last write.
func New(api dynamodbAPI, tableName string, expireHours int) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if expireHours <= 0 {
		return nil, errors.New("repository: expire hours must be positive")
	}
	return &Client{
		api:       api,
		tableName: tableName,
		ttl:       time.Duration(expireHours) * time.Hour,
		now:       time.Now,
	}, nil
}

func sessionKey(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"SessionId": &types.AttributeValueMemberS{Value: sessionID},
	}
}

// GetSession loads the session stored for a thread.
func (c *Client) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.Session{}, ErrSessionNotFound
	}

	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession unmarshal item: %w", err)
	}
	if rec.Data == "" {
		return domain.Session{}, errors.New("repository: GetSession: item has no data")
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(rec.Data), &s); err != nil {
		return domain.Session{}, fmt.Errorf("repository: GetSession decode data: %w", err)
	}
	if s.History == nil {
		s.History = []domain.ChatMessage{}
	}
	return s, nil
}

// PutSession replaces the stored session for a thread and pushes its expiry
// forward. Writes are unconditional: concurrent turns in one thread resolve
// as last writer wins.
func (c *Client) PutSession(ctx context.Context, sessionID string, s domain.Session) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("repository: PutSession: session id is required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("repository: PutSession encode data: %w", err)
	}
	item, err := attributevalue.MarshalMap(sessionRecord{
		SessionID: sessionID,
		Data:      string(data),
		ExpireAt:  c.expireAt(),
	})
	if err != nil {
		return fmt.Errorf("repository: PutSession marshal item: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: PutSession: %w", err)
	}
	return nil
}

// expireAt returns the TTL attribute value in epoch seconds.
func (c *Client) expireAt() int64 {
	return c.now().Add(c.ttl).Unix()
}
