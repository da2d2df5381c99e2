package ai

import (
	"fmt"
	"strings"
	"time"
)

// assistantContextWindow is how many recent messages the assistant reads.
const assistantContextWindow = 5

func summaryPrompt(description string) string {
	return fmt.Sprintf(`Based on this user's financial profile: %s

Provide a realistic, balanced daily financial summary and advice. Be honest about market conditions.

Return ONLY valid JSON with no markdown and no extra text:
{
  "summary_en": "One to three sentences per interest named in the profile, each starting with the interest name. Separate interests with semicolons.",
  "summary_id": "Indonesian translation of summary_en with the same separators.",
  "advice_en": "One or two numbered items per interest, each with Action, Rationale and Risk on one line. Separate items with semicolons.",
  "advice_id": "Indonesian translation of advice_en with the same separators."
}

If the profile names no explicit interests, infer the one to three most relevant ones. Acknowledge volatility and downside risk. Avoid hype.`,
		description)
}

func preferencePrompt(description, message string) string {
	return fmt.Sprintf(`You manage a user's financial preference description.

Current description:
%s

User's message:
%s

Return ONLY valid JSON using exactly one of these shapes:
- If the message explicitly asks to change preferences:
  {"new_desc": "the full updated description", "response": "confirmation of what changed"}
- Otherwise (a question, or anything ambiguous):
  {"response": "your answer or a clarifying question"}

Keep existing preferences unless the user removes them. Apply requested replacements precisely. Keep new_desc concise.`,
		description, message)
}

// assistantPrompt builds the instruction for one assistant turn.
func assistantPrompt(req AssistantRequest, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are Claudia, a friendly financial news assistant for BeritaBank.\n")
	fmt.Fprintf(&b, "User profile: %s\n", orNone(req.Description))
	fmt.Fprintf(&b, "Current date: %s\n\n", now.Format("January 2, 2006"))

	switch req.Kind {
	case TurnIntroduction:
		b.WriteString("This is your first conversation with this user. Introduce yourself, acknowledge their interests, " +
			"ask two or three clarifying questions about their financial goals, and explain how you can help with news and market updates.\n")
	case TurnDailyIntro:
		b.WriteString("This is a daily check-in. Greet the user, give brief market insights that match their interests, " +
			"and invite them to ask questions. Mention general trends rather than specific investment advice.\n\n")
		fmt.Fprintf(&b, "Conversation so far:\n%s\n", formatTranscript(req.History))
	default:
		b.WriteString("Answer the user's latest message helpfully and accurately, using their interests and the conversation context. " +
			"Include a disclaimer when discussing specific investments.\n\n")
		fmt.Fprintf(&b, "Recent conversation:\n%s\n", formatTranscript(req.History))
	}

	fmt.Fprintf(&b, "\nRespond in %s only.", req.Language.Name())
	return b.String()
}

// formatTranscript renders the last assistantContextWindow messages.
func formatTranscript(history []Message) string {
	if len(history) == 0 {
		return "(no previous conversation)"
	}
	start := max(len(history)-assistantContextWindow, 0)

	var b strings.Builder
	for _, m := range history[start:] {
		speaker := "User"
		if m.Role == RoleAssistant {
			speaker = "Claudia"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}
