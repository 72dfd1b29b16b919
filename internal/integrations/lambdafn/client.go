package lambdafn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"idea-relay/internal/domain"
)

// lambdaAPI is the minimal Lambda interface required by Client.
type lambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// Client hands turn events to the worker function.
type Client struct {
	api            lambdaAPI
	functionName   string
	invocationType types.InvocationType
}

// New creates a Client. invocationType is one of Event (fire and forget),
// RequestResponse or DryRun; empty means Event.
func New(api lambdaAPI, functionName, invocationType string) (*Client, error) {
	if api == nil {
		return nil, errors.New("lambdafn: api must not be nil")
	}
	functionName = strings.TrimSpace(functionName)
	if functionName == "" {
		return nil, errors.New("lambdafn: function name must not be empty")
	}
	it := types.InvocationTypeEvent
	if invocationType != "" {
		it = types.InvocationType(invocationType)
	}
	switch it {
	case types.InvocationTypeEvent, types.InvocationTypeRequestResponse, types.InvocationTypeDryRun:
	default:
		return nil, fmt.Errorf("lambdafn: unsupported invocation type %q", invocationType)
	}
	return &Client{api: api, functionName: functionName, invocationType: it}, nil
}

// Dispatch invokes the worker with the event. In Event mode it returns as
// soon as Lambda has queued the payload; the turn's outcome is not observed.
func (c *Client) Dispatch(ctx context.Context, ev domain.TurnEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("lambdafn: marshal payload: %w", err)
	}
	out, err := c.api.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.functionName),
		InvocationType: c.invocationType,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("lambdafn: invoke %s: %w", c.functionName, err)
	}
	if out != nil && out.FunctionError != nil {
		return fmt.Errorf("lambdafn: %s returned function error %q: %s", c.functionName, aws.ToString(out.FunctionError), string(out.Payload))
	}
	return nil
}
