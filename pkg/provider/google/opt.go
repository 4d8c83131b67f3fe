package google

import (
	// Packages
	opt "github.com/zhaohuiwang/adk-samples/pkg/opt"
)

///////////////////////////////////////////////////////////////////////////////
// GENERATION OPTIONS
//
// See: https://ai.google.dev/gemini-api/docs/text-generation

// WithThinkingBudget enables the model's extended thinking with a token
// budget. Only supported by models with thinking capabilities.
//
// See: https://ai.google.dev/gemini-api/docs/thinking
func WithThinkingBudget(value uint) opt.Opt {
	return opt.SetUint(opt.ThinkingBudgetKey, value)
}
