package google

import (
	"encoding/json"
	"fmt"

	// Packages
	uuid "github.com/google/uuid"
	adk "github.com/zhaohuiwang/adk-samples"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// CONVERSATION -> GEMINI

// geminiContentsFromConversation converts the conversation to wire contents.
// System messages are skipped (they are sent as the system instruction) and
// consecutive messages with the same wire role are merged.
func geminiContentsFromConversation(conversation schema.Conversation) ([]*geminiContent, error) {
	result := make([]*geminiContent, 0, len(conversation))
	for _, message := range conversation {
		if message == nil || message.Role == schema.RoleSystem {
			continue
		}
		content, err := geminiContentFromMessage(message)
		if err != nil {
			return nil, err
		}
		if len(content.Parts) == 0 {
			continue
		}
		if n := len(result); n > 0 && result[n-1].Role == content.Role {
			result[n-1].Parts = append(result[n-1].Parts, content.Parts...)
		} else {
			result = append(result, content)
		}
	}
	if len(result) == 0 {
		return nil, adk.ErrBadParameter.With("conversation has no content")
	}
	return result, nil
}

func geminiContentFromMessage(message *schema.Message) (*geminiContent, error) {
	content := &geminiContent{
		Role: geminiRole(message.Role),
	}
	for _, block := range message.Content {
		switch {
		case block.Text != nil:
			if *block.Text != "" {
				content.Parts = append(content.Parts, &geminiPart{Text: *block.Text})
			}
		case block.Thinking != nil:
			if *block.Thinking != "" {
				content.Parts = append(content.Parts, &geminiPart{Text: *block.Thinking, Thought: true})
			}
		case block.ToolCall != nil:
			args, err := geminiArgs(block.ToolCall.Input)
			if err != nil {
				return nil, adk.ErrBadParameter.Withf("tool call %q: %v", block.ToolCall.Name, err)
			}
			content.Parts = append(content.Parts, geminiNewFunctionCallPart(block.ToolCall.ID, block.ToolCall.Name, args))
		case block.ToolResult != nil:
			content.Parts = append(content.Parts, geminiNewFunctionResponsePart(block.ToolResult.ID, block.ToolResult.Name, block.ToolResult.Payload()))
		}
	}
	return content, nil
}

// geminiRole maps a message role to a wire role. Tool results are sent by the user.
func geminiRole(role string) string {
	switch role {
	case schema.RoleAssistant, schema.RoleThinking:
		return geminiRoleModel
	default:
		return geminiRoleUser
	}
}

// geminiArgs decodes tool call input, which must be a JSON object
func geminiArgs(input json.RawMessage) (map[string]any, error) {
	if len(input) == 0 || string(input) == "null" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, err
	}
	return args, nil
}

///////////////////////////////////////////////////////////////////////////////
// TOOLS -> GEMINI

// geminiFunctionDeclsFromOption accepts a registry or a list of tools
func geminiFunctionDeclsFromOption(v any) ([]*geminiFunctionDeclaration, error) {
	switch tools := v.(type) {
	case nil:
		return nil, nil
	case *tool.Registry:
		if tools == nil {
			return nil, nil
		}
		return geminiFunctionDeclsFromTools(tools.Tools())
	case []tool.Tool:
		return geminiFunctionDeclsFromTools(tools)
	default:
		return nil, adk.ErrBadParameter.Withf("unsupported tools option %T", v)
	}
}

func geminiFunctionDeclsFromTools(tools []tool.Tool) ([]*geminiFunctionDeclaration, error) {
	result := make([]*geminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		decl := &geminiFunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
		}
		s, err := t.Schema()
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.Name(), err)
		}
		if s != nil {
			data, err := json.Marshal(s)
			if err != nil {
				return nil, fmt.Errorf("tool %q: %w", t.Name(), err)
			}
			if err := json.Unmarshal(data, &decl.ParametersJSONSchema); err != nil {
				return nil, fmt.Errorf("tool %q: %w", t.Name(), err)
			}
		}
		result = append(result, decl)
	}
	return result, nil
}

///////////////////////////////////////////////////////////////////////////////
// GEMINI -> MESSAGE

// messageFromGeminiCandidate converts a candidate to an assistant message.
// Consecutive text parts are merged into one block.
func messageFromGeminiCandidate(candidate *geminiCandidate) *schema.Message {
	message := &schema.Message{
		Role:    schema.RoleAssistant,
		Content: []schema.ContentBlock{},
	}
	if candidate == nil || candidate.Content == nil {
		return message
	}
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.FunctionCall != nil:
			message.Content = append(message.Content, blockFromGeminiFunctionCall(part.FunctionCall))
		case part.Thought && part.Text != "":
			if n := len(message.Content); n > 0 && message.Content[n-1].Thinking != nil {
				*message.Content[n-1].Thinking += part.Text
			} else {
				text := part.Text
				message.Content = append(message.Content, schema.ContentBlock{Thinking: &text})
			}
		case part.Text != "":
			if n := len(message.Content); n > 0 && message.Content[n-1].Text != nil {
				*message.Content[n-1].Text += part.Text
			} else {
				message.Content = append(message.Content, schema.NewText(part.Text))
			}
		}
	}
	return message
}

// blockFromGeminiFunctionCall assigns an identifier when the model did not
func blockFromGeminiFunctionCall(call *geminiFunctionCall) schema.ContentBlock {
	id := call.ID
	if id == "" {
		id = uuid.NewString()
	}
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	input, err := json.Marshal(args)
	if err != nil {
		input = []byte("{}")
	}
	return schema.NewToolCall(id, call.Name, input)
}
