package google

import (
	"context"
	"io"

	// Packages
	client "github.com/mutablelogic/go-client"
	adk "github.com/zhaohuiwang/adk-samples"
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Generate returns the model response to the conversation. The conversation
// is not modified. When a stream callback is set, text is delivered through it
// as it arrives and the complete message is still returned.
func (c *Client) Generate(ctx context.Context, model string, conversation schema.Conversation, opts ...opt.Opt) (*schema.Message, *schema.Usage, error) {
	if model == "" {
		return nil, nil, adk.ErrBadParameter.With("model is required")
	}
	if len(conversation) == 0 {
		return nil, nil, adk.ErrBadParameter.With("conversation is empty")
	}

	// Apply options
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, nil, err
	}

	// Build request
	request, err := generateRequestFromOpts(conversation, options)
	if err != nil {
		return nil, nil, err
	}

	// Create JSON payload
	payload, err := client.NewJSONRequest(request)
	if err != nil {
		return nil, nil, err
	}

	// Streaming path
	if streamFn := options.GetStream(); streamFn != nil {
		return c.generateStream(ctx, model, payload, streamFn)
	}

	// Non-streaming path
	var response geminiGenerateResponse
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath("models", model+":generateContent")); err != nil {
		return nil, nil, err
	}

	return processResponse(&response)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// generateStream handles the SSE streaming response from the Gemini API
func (c *Client) generateStream(ctx context.Context, model string, payload client.Payload, streamFn opt.StreamFn) (*schema.Message, *schema.Usage, error) {
	var (
		role         string
		finishReason string
		blockReason  string
		usage        *geminiUsageMetadata
		parts        []*geminiPart
	)

	callback := func(event client.TextStreamEvent) error {
		var chunk geminiGenerateResponse
		if err := event.Json(&chunk); err != nil {
			return err
		}

		// The last chunk carries the final counts
		if chunk.UsageMetadata != nil {
			usage = chunk.UsageMetadata
		}
		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
			blockReason = chunk.PromptFeedback.BlockReason
		}
		if len(chunk.Candidates) == 0 {
			return nil
		}

		candidate := chunk.Candidates[0]
		if candidate.FinishReason != "" {
			finishReason = candidate.FinishReason
		}
		if candidate.Content == nil {
			return nil
		}
		if role == "" && candidate.Content.Role != "" {
			role = candidate.Content.Role
		}

		// Accumulate parts and stream text to the callback
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			parts = append(parts, part)
			if part.Text == "" {
				continue
			}
			if part.Thought {
				streamFn(schema.RoleThinking, part.Text)
			} else {
				streamFn(schema.RoleAssistant, part.Text)
			}
		}
		return nil
	}

	// Gemini streams with ?alt=sse
	var discard geminiGenerateResponse
	if err := c.DoWithContext(ctx, payload, &discard,
		client.OptPath("models", model+":streamGenerateContent"),
		client.OptQuery(map[string][]string{"alt": {"sse"}}),
		client.OptTextStreamCallback(callback),
	); err != nil && err != io.EOF {
		return nil, nil, err
	}

	// Build the final response from accumulated parts
	response := &geminiGenerateResponse{
		UsageMetadata: usage,
	}
	if blockReason != "" {
		response.PromptFeedback = &geminiPromptFeedback{BlockReason: blockReason}
	}
	if len(parts) > 0 || finishReason != "" {
		response.Candidates = []*geminiCandidate{{
			Content:      &geminiContent{Parts: parts, Role: role},
			FinishReason: finishReason,
		}}
	}

	return processResponse(response)
}

// processResponse converts a gemini response to a message, and maps finish
// reasons which need the caller's attention to errors
func processResponse(response *geminiGenerateResponse) (*schema.Message, *schema.Usage, error) {
	usage := new(schema.Usage)
	if response.UsageMetadata != nil {
		usage.InputTokens = uint(response.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = uint(response.UsageMetadata.CandidatesTokenCount)
	}

	// A blocked prompt has no candidates
	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return nil, usage, adk.ErrRefusal.With(response.PromptFeedback.BlockReason)
		}
		return nil, usage, adk.ErrInternalServerError.With("no candidates in response")
	}

	message := messageFromGeminiCandidate(response.Candidates[0])
	message.Tokens = usage.OutputTokens

	switch reason := response.Candidates[0].FinishReason; reason {
	case geminiFinishReasonMaxTokens:
		return message, usage, adk.ErrMaxTokens
	case geminiFinishReasonSafety, geminiFinishReasonImageSafety,
		geminiFinishReasonProhibitedContent, geminiFinishReasonImageProhibitedContent,
		geminiFinishReasonBlocklist, geminiFinishReasonSPII, geminiFinishReasonRecitation:
		return message, usage, adk.ErrRefusal.With(reason)
	}

	return message, usage, nil
}

///////////////////////////////////////////////////////////////////////////////
// REQUEST BUILDING

// generateRequestFromOpts builds a geminiGenerateRequest from the conversation
// and applied options
func generateRequestFromOpts(conversation schema.Conversation, options *opt.Options) (*geminiGenerateRequest, error) {
	contents, err := geminiContentsFromConversation(conversation)
	if err != nil {
		return nil, err
	}

	request := &geminiGenerateRequest{
		Contents: contents,
	}

	// System instruction
	if systemPrompt := options.GetString(opt.SystemPromptKey); systemPrompt != "" {
		request.SystemInstruction = geminiNewTextContent("", systemPrompt)
	}

	// Generation config, omitted when nothing is configured
	if options.Has(opt.TemperatureKey) {
		v := options.GetFloat64(opt.TemperatureKey)
		request.GenerationConfig.Temperature = &v
	}
	if options.Has(opt.MaxTokensKey) {
		request.GenerationConfig.MaxOutputTokens = int(options.GetUint(opt.MaxTokensKey))
	}
	if options.Has(opt.ThinkingBudgetKey) {
		request.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  int(options.GetUint(opt.ThinkingBudgetKey)),
		}
	}

	// Function declarations and search grounding
	decls, err := geminiFunctionDeclsFromOption(options.Get(opt.ToolsKey))
	if err != nil {
		return nil, err
	}
	if len(decls) > 0 {
		request.Tools = append(request.Tools, &geminiTool{FunctionDeclarations: decls})
	}
	if options.GetBool(opt.GoogleSearchKey) {
		request.Tools = append(request.Tools, &geminiTool{GoogleSearch: &geminiGoogleSearch{}})
	}

	return request, nil
}
