package llm

import (
	"github.com/pkoukk/tiktoken-go"
)

// CountTokens estimates the token count of text for the given model. Models
// without a known tiktoken encoding fall back to a length heuristic.
func CountTokens(model, text string) int {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
	}

	if err != nil {
		// Roughly four bytes per token for English text.
		return (len(text) + 3) / 4
	}

	return len(tke.Encode(text, nil, nil))
}
