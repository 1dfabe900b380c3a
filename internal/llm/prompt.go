package llm

import (
	"fmt"
	"strings"

	"github.com/letrezdraw/AIST/internal/conversation"
	"github.com/letrezdraw/AIST/internal/factstore"
)

// FormatHistory renders conversation history as a single prompt string,
// framing each user turn as an instruction-wrapped segment and each
// assistant turn as a completion segment. Kept here rather than in
// internal/conversation since the exact delimiters are a provider
// detail, not part of the history's own data model.
func FormatHistory(history []conversation.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case conversation.RoleUser:
			fmt.Fprintf(&b, "### Instruction:\n%s\n", turn.Content)
		case conversation.RoleAssistant:
			fmt.Fprintf(&b, "### Response:\n%s\n", turn.Content)
		}
	}
	return b.String()
}

// BuildChatSystemPrompt assembles the system prompt for the
// conversational chat fallback: prior history plus up to three relevant
// facts retrieved by full-text search.
func BuildChatSystemPrompt(history []conversation.Turn, facts []factstore.Fact) string {
	var b strings.Builder
	b.WriteString("You are a helpful voice assistant. Answer naturally and concisely.\n\n")

	if len(facts) > 0 {
		b.WriteString("Relevant facts you know:\n")
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s\n", f.Content)
		}
		b.WriteString("\n")
	}

	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		b.WriteString(FormatHistory(history))
		b.WriteString("\n")
	}

	return b.String()
}
