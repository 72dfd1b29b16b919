package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"idea-relay/internal/domain"
)

const dataPlaceholder = "{data}"

// compileIdeaPrompt is the system prompt for every turn. The {data}
// placeholder receives the stored idea and the conversation as JSON.
const compileIdeaPrompt = `<instructions>
You turn a chat conversation into a product idea record.

- Read the chat history and the idea information gathered so far.
- Return the idea in the standardized format below.
- When a field is still unknown, ask the user for it in your message.
- Fix grammar in the captured fields without changing their meaning.
- Respond with a single valid JSON object and nothing else. Escape \n and \" inside strings.
- You may reason inside <thinking> tags before the JSON object.

The JSON object has these keys:
- "complete": true once name, description and customer are all known, otherwise false
- "idea": an object with
  - "name": the idea name, omitted when it cannot be determined
  - "description": the idea description, omitted when it cannot be determined
  - "customer": the customer asking for the idea, omitted when it cannot be determined
- "message": the reply to send to the user
</instructions>

<examples>
<example>
<history>
[{"content": "My customer Coca-Cola wants to be able to order supplies on our website", "role": "user"}]
</history>
<input>
{}
</input>
<output>
{"complete": false, "idea": {"name": "Order supplies on our website", "customer": "Coca-Cola"}, "message": "I captured an idea to order supplies on our website for Coca-Cola. Would you please provide a description of the idea?"}
</output>
</example>
<example>
<history>
[
  {"content": "My customer Coca-Cola wants to be able to order supplies on our website", "role": "user"},
  {"content": "I captured an idea to order supplies on our website for Coca-Cola. Would you please provide a description of the idea?", "role": "assistant"},
  {"content": "Customers don't want to call our agents to place an order. They would like a self-service model.", "role": "user"}
]
</history>
<input>
{"name": "Order supplies on our website", "customer": "Coca-Cola"}
</input>
<output>
{"complete": true, "idea": {"name": "Order supplies on our website", "description": "Customers don't want to call our agents to place an order. They would like a self-service model.", "customer": "Coca-Cola"}, "message": "Thank you for your idea. I submitted the following:\n\n- Name: Order supplies on our website\n- Description: Customers don't want to call our agents to place an order. They would like a self-service model.\n- Customer: Coca-Cola"}
</output>
</example>
<example>
<history>
[{"content": "Delta wants to be able to remotely update our software so planes don't need to be physically updated.", "role": "user"}]
</history>
<input>
{}
</input>
<output>
{"complete": true, "idea": {"name": "Remotely update our software", "description": "Customers don't want to physically update their planes. Updates should be performed remotely.", "customer": "Delta"}, "message": "Your idea has been captured and submitted:\n\n- Name: Remotely update our software\n- Description: Customers don't want to physically update their planes. Updates should be performed remotely.\n- Customer: Delta"}
</output>
</example>
</examples>

<input>
{data}
</input>
`

var reasoningPattern = regexp.MustCompile(`(?s)\s*<thinking>.*?</thinking>\s*`)

// promptData is the auxiliary context substituted into the prompt.
type promptData struct {
	domain.Idea
	History []domain.ChatMessage `json:"history"`
}

func renderSystemPrompt(template string, data any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("usecase: encode prompt data: %w", err)
	}
	return strings.Replace(template, dataPlaceholder, string(b), 1), nil
}

func stripReasoning(raw string) string {
	return strings.TrimSpace(reasoningPattern.ReplaceAllString(raw, ""))
}

func parseModelResponse(raw string) (domain.ModelResponse, error) {
	text := stripReasoning(raw)
	var out domain.ModelResponse
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return domain.ModelResponse{}, fmt.Errorf("usecase: decode model response: %w", err)
	}
	return out, nil
}
