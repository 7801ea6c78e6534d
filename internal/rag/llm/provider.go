package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
)

type Provider interface {
	Name() string
	Generate(ctx context.Context, question string, matches []string, history []commonModels.Turn) (string, error)
}

// ContextBlock joins retrieved chunks for the prompt.
func ContextBlock(matches []string) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(m))
	}
	return b.String()
}

// BuildPrompt flattens instructions, context and history into one prompt for models without chat roles.
func BuildPrompt(question string, matches []string, history []commonModels.Turn) string {
	var b strings.Builder
	b.WriteString(config.ModelContext)
	b.WriteString("\n\nContext:\n")
	b.WriteString(ContextBlock(matches))
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", turn.Question, turn.Answer)
		}
	}
	b.WriteString("\n")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}
