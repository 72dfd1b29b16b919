package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/require"

	"idea-relay/internal/domain"
)

type fakeRuntime struct {
	out    *bedrockruntime.InvokeModelOutput
	err    error
	lastIn *bedrockruntime.InvokeModelInput
}

func (f *fakeRuntime) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.lastIn = in
	return f.out, f.err
}

var testParams = Params{MaxTokens: 4096, Temperature: 0.4, TopK: 250}

func responseBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"id":      "msg_bdrk_01",
		"type":    "message",
		"role":    "assistant",
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return b
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "m", testParams)
	require.Error(t, err)
	_, err = New(&fakeRuntime{}, " ", testParams)
	require.Error(t, err)
	_, err = New(&fakeRuntime{}, "m", Params{})
	require.Error(t, err)
}

func TestComplete_SendsMessagesBody(t *testing.T) {
	rt := &fakeRuntime{out: &bedrockruntime.InvokeModelOutput{Body: responseBody(`{"complete":false,"message":"hi"}`)}}
	c, err := New(rt, "anthropic.claude-3-7-sonnet", testParams)
	require.NoError(t, err)

	history := []domain.ChatMessage{{Content: "My customer Delta wants remote updates", Role: domain.RoleUser}}
	text, err := c.Complete(context.Background(), "system prompt", history)
	require.NoError(t, err)
	require.Equal(t, `{"complete":false,"message":"hi"}`, text)

	require.Equal(t, "anthropic.claude-3-7-sonnet", aws.ToString(rt.lastIn.ModelId))
	require.Equal(t, "application/json", aws.ToString(rt.lastIn.ContentType))

	var sent messagesRequest
	require.NoError(t, json.Unmarshal(rt.lastIn.Body, &sent))
	require.Equal(t, anthropicVersion, sent.AnthropicVersion)
	require.Equal(t, 4096, sent.MaxTokens)
	require.Equal(t, "system prompt", sent.System)
	require.InDelta(t, 0.4, sent.Temperature, 1e-9)
	require.Equal(t, 250, sent.TopK)
	require.Equal(t, history, sent.Messages)
}

func TestComplete_Errors(t *testing.T) {
	cases := []struct {
		name string
		rt   *fakeRuntime
		want string
	}{
		{name: "invoke error", rt: &fakeRuntime{err: errors.New("ThrottlingException")}, want: "ThrottlingException"},
		{name: "nil output", rt: &fakeRuntime{}, want: "empty invoke output"},
		{name: "bad body", rt: &fakeRuntime{out: &bedrockruntime.InvokeModelOutput{Body: []byte("nope")}}, want: "decode response"},
		{name: "no content", rt: &fakeRuntime{out: &bedrockruntime.InvokeModelOutput{Body: []byte(`{"content":[]}`)}}, want: "no content"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.rt, "m", testParams)
			require.NoError(t, err)
			_, err = c.Complete(context.Background(), "s", nil)
			require.ErrorContains(t, err, tc.want)
		})
	}
}
