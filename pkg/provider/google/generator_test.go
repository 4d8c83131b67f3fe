package google

import (
	"context"
	"encoding/json"
	"testing"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	assert "github.com/stretchr/testify/assert"
	adk "github.com/zhaohuiwang/adk-samples"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	tool "github.com/zhaohuiwang/adk-samples/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// UNIT TESTS - generateRequestFromOpts

func Test_generateRequest_001(t *testing.T) {
	// Minimal request with a single user message
	assert := assert.New(t)

	o, err := opt.Apply()
	assert.NoError(err)

	req, err := generateRequestFromOpts(schema.Conversation{schema.NewMessage(schema.RoleUser, "Hello")}, o)
	if assert.NoError(err) {
		assert.Len(req.Contents, 1)
		assert.Equal("user", req.Contents[0].Role)
		assert.Equal("Hello", req.Contents[0].Parts[0].Text)
		assert.Nil(req.SystemInstruction)
		assert.Nil(req.GenerationConfig.Temperature)
		assert.Nil(req.Tools)
	}

	// The generation config is omitted when empty
	data, err := json.Marshal(req)
	assert.NoError(err)
	assert.NotContains(string(data), "generationConfig")
}

func Test_generateRequest_002(t *testing.T) {
	// System prompt, temperature, max tokens and thinking budget
	assert := assert.New(t)

	o, err := opt.Apply(
		opt.WithSystemPrompt("You are a forecaster."),
		opt.WithTemperature(0.2),
		opt.WithMaxTokens(512),
		WithThinkingBudget(1024),
	)
	assert.NoError(err)

	req, err := generateRequestFromOpts(schema.Conversation{schema.NewMessage(schema.RoleUser, "Hi")}, o)
	if assert.NoError(err) {
		if assert.NotNil(req.SystemInstruction) {
			assert.Empty(req.SystemInstruction.Role)
			assert.Equal("You are a forecaster.", req.SystemInstruction.Parts[0].Text)
		}
		if assert.NotNil(req.GenerationConfig.Temperature) {
			assert.InDelta(0.2, *req.GenerationConfig.Temperature, 1e-9)
		}
		assert.Equal(512, req.GenerationConfig.MaxOutputTokens)
		if assert.NotNil(req.GenerationConfig.ThinkingConfig) {
			assert.True(req.GenerationConfig.ThinkingConfig.IncludeThoughts)
			assert.Equal(1024, req.GenerationConfig.ThinkingConfig.ThinkingBudget)
		}
	}
}

func Test_generateRequest_003(t *testing.T) {
	// Tools become function declarations with a JSON schema, search is a separate tool
	assert := assert.New(t)

	lookup := tool.New("get_ticket", "Fetch a ticket", &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": {Type: "integer"},
		},
		Required: []string{"id"},
	}, nil)
	registry := tool.Build(context.Background(), nil, lookup)

	for _, tools := range []any{registry, []tool.Tool{lookup}} {
		o, err := opt.Apply(opt.WithTools(tools), opt.WithGoogleSearch())
		assert.NoError(err)

		req, err := generateRequestFromOpts(schema.Conversation{schema.NewMessage(schema.RoleUser, "Hi")}, o)
		if !assert.NoError(err) || !assert.Len(req.Tools, 2) {
			continue
		}
		if decls := req.Tools[0].FunctionDeclarations; assert.Len(decls, 1) {
			assert.Equal("get_ticket", decls[0].Name)
			assert.Equal("Fetch a ticket", decls[0].Description)
			assert.Equal("object", decls[0].ParametersJSONSchema["type"])
			assert.Equal([]any{"id"}, decls[0].ParametersJSONSchema["required"])
		}
		assert.NotNil(req.Tools[1].GoogleSearch)
		assert.Empty(req.Tools[1].FunctionDeclarations)
	}

	// Unsupported tools option
	o, err := opt.Apply(opt.WithTools("get_ticket"))
	assert.NoError(err)
	_, err = generateRequestFromOpts(schema.Conversation{schema.NewMessage(schema.RoleUser, "Hi")}, o)
	assert.ErrorIs(err, adk.ErrBadParameter)
}

func Test_generateRequest_004(t *testing.T) {
	// Conversation with a tool round trip
	assert := assert.New(t)

	call := &schema.Message{
		Role:    schema.RoleAssistant,
		Content: []schema.ContentBlock{schema.NewToolCall("call-1", "get_ticket", json.RawMessage(`{"id":7}`))},
	}
	result := &schema.Message{
		Role:    schema.RoleTool,
		Content: []schema.ContentBlock{schema.NewToolResult("call-1", "get_ticket", map[string]any{"title": "Login fails"})},
	}
	conversation := schema.Conversation{
		schema.NewMessage(schema.RoleSystem, "ignored"),
		schema.NewMessage(schema.RoleUser, "What is ticket 7?"),
		call,
		result,
		schema.NewMessage(schema.RoleUser, "Thanks"),
	}

	o, err := opt.Apply()
	assert.NoError(err)
	req, err := generateRequestFromOpts(conversation, o)
	if !assert.NoError(err) || !assert.Len(req.Contents, 3) {
		return
	}

	// The user text, then the model call
	assert.Equal("user", req.Contents[0].Role)
	assert.Equal("model", req.Contents[1].Role)
	if fc := req.Contents[1].Parts[0].FunctionCall; assert.NotNil(fc) {
		assert.Equal("call-1", fc.ID)
		assert.Equal("get_ticket", fc.Name)
		assert.Equal(map[string]any{"id": float64(7)}, fc.Args)
	}

	// The tool result and the next user message merge into one user turn
	assert.Equal("user", req.Contents[2].Role)
	if assert.Len(req.Contents[2].Parts, 2) {
		if fr := req.Contents[2].Parts[0].FunctionResponse; assert.NotNil(fr) {
			assert.Equal("get_ticket", fr.Name)
			assert.Equal(map[string]any{"title": "Login fails"}, fr.Response)
		}
		assert.Equal("Thanks", req.Contents[2].Parts[1].Text)
	}
}

func Test_generateRequest_005(t *testing.T) {
	// Empty and invalid conversations
	assert := assert.New(t)
	o, err := opt.Apply()
	assert.NoError(err)

	_, err = generateRequestFromOpts(schema.Conversation{schema.NewMessage(schema.RoleSystem, "only")}, o)
	assert.ErrorIs(err, adk.ErrBadParameter)

	bad := &schema.Message{
		Role:    schema.RoleAssistant,
		Content: []schema.ContentBlock{schema.NewToolCall("x", "get_ticket", json.RawMessage(`[1,2]`))},
	}
	_, err = generateRequestFromOpts(schema.Conversation{bad}, o)
	assert.ErrorIs(err, adk.ErrBadParameter)
}

///////////////////////////////////////////////////////////////////////////////
// UNIT TESTS - processResponse

func Test_processResponse_001(t *testing.T) {
	assert := assert.New(t)

	response := &geminiGenerateResponse{
		Candidates: []*geminiCandidate{{
			Content: &geminiContent{Role: "model", Parts: []*geminiPart{
				{Text: "thinking...", Thought: true},
				{Text: "Result: "},
				{Text: "42"},
				{FunctionCall: &geminiFunctionCall{Name: "get_ticket", Args: map[string]any{"id": 7}}},
			}},
			FinishReason: geminiFinishReasonStop,
		}},
		UsageMetadata: &geminiUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 5},
	}
	message, usage, err := processResponse(response)
	assert.NoError(err)
	assert.Equal(uint(10), usage.InputTokens)
	assert.Equal(uint(5), usage.OutputTokens)
	if assert.NotNil(message) {
		assert.Equal(schema.RoleAssistant, message.Role)
		assert.Equal("Result: 42", message.Text())
		assert.Equal(uint(5), message.Tokens)
		if calls := message.ToolCalls(); assert.Len(calls, 1) {
			assert.NotEmpty(calls[0].ID)
			assert.Equal("get_ticket", calls[0].Name)
			assert.JSONEq(`{"id":7}`, string(calls[0].Input))
		}
		assert.Len(message.Content, 3)
	}
}

func Test_processResponse_002(t *testing.T) {
	assert := assert.New(t)

	candidate := func(reason string) *geminiGenerateResponse {
		return &geminiGenerateResponse{Candidates: []*geminiCandidate{{
			Content:      geminiNewTextContent("model", "partial"),
			FinishReason: reason,
		}}}
	}

	message, _, err := processResponse(candidate(geminiFinishReasonMaxTokens))
	assert.ErrorIs(err, adk.ErrMaxTokens)
	assert.Equal("partial", message.Text())

	_, _, err = processResponse(candidate(geminiFinishReasonSafety))
	assert.ErrorIs(err, adk.ErrRefusal)

	_, _, err = processResponse(&geminiGenerateResponse{PromptFeedback: &geminiPromptFeedback{BlockReason: "SAFETY"}})
	assert.ErrorIs(err, adk.ErrRefusal)

	_, _, err = processResponse(&geminiGenerateResponse{})
	assert.ErrorIs(err, adk.ErrInternalServerError)
}
