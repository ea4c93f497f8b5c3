package inference

import (
	"strings"

	"inferd/pkg/types"
)

// buildSystemPrompt assembles the tenant's system prompt from the template
// sections, skipping empty ones. Sections are separated by blank lines;
// omitted sections contribute nothing, not empty placeholders.
func buildSystemPrompt(tpl types.PromptTemplate) string {
	var parts []string
	if tpl.AgentRole != "" {
		parts = append(parts, tpl.AgentRole)
	}
	if tpl.Rules != "" {
		parts = append(parts, tpl.Rules)
	}
	if tpl.BusinessInfo != "" {
		parts = append(parts, "Business Information:\n"+tpl.BusinessInfo)
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt concatenates system prompt, retrieved context, and user input
// with fixed role markers. With no system prompt and no context the user
// input passes through bare.
func buildPrompt(systemPrompt, context, userInput string) string {
	if context != "" {
		return systemPrompt + "\n\nContext:\n" + context + "\n\nUser: " + userInput + "\nAssistant:"
	}
	if systemPrompt != "" {
		return systemPrompt + "\n\nUser: " + userInput + "\nAssistant:"
	}
	return userInput
}
