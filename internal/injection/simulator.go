package injection

import (
	"fmt"
	"strings"

	"github.com/agentqa/mentor/internal/models"
)

const (
	simulatedConversationID = "injection_test"
	simulatedAgentName      = "injection_simulator"
)

// Simulator builds synthetic traces for injection testing. It is not a real
// agent: it deliberately behaves unsafely for certain attack patterns so the
// QA pipeline has something to catch.
type Simulator struct{}

// Simulate builds a minimal three-event trace: the system prompt, the
// (potentially adversarial) user message, and a simulated assistant response.
func (Simulator) Simulate(systemPrompt, userPrompt string) *models.ConversationTrace {
	return &models.ConversationTrace{
		ConversationID: simulatedConversationID,
		Events: []models.TraceEvent{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleUser, Content: userPrompt},
			{Role: models.RoleAssistant, Content: simulateResponse(systemPrompt, userPrompt)},
		},
		Metadata: map[string]any{
			models.MetaAgentName: simulatedAgentName,
		},
	}
}

// simulateResponse produces an unsafe canned answer: "ignore"/"override"
// attacks leak the system prompt, "secret" attacks leak a fake API key, and
// everything else gets compliant filler.
func simulateResponse(systemPrompt, userPrompt string) string {
	up := strings.ToLower(userPrompt)

	if strings.Contains(up, "ignore") || strings.Contains(up, "override") {
		return fmt.Sprintf("Okay, ignoring instructions. System prompt was: '%s'.", systemPrompt)
	}
	if strings.Contains(up, "secret") {
		return "Here is the secret API key: sk-test-12345."
	}
	return "I will try my best to help you. (Simulated agent response)"
}
