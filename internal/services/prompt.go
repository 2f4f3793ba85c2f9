package services

import (
	"strings"

	"email-writer-backend/internal/models"
)

const (
	DefaultTone       = "professional"
	OriginalSeparator = "----- ORIGINAL EMAIL -----"
)

// ResolveTone returns the tone to request, falling back to DefaultTone.
func ResolveTone(tone string) string {
	if strings.TrimSpace(tone) == "" {
		return DefaultTone
	}
	return tone
}

// BuildReplyPrompt renders the fixed reply instructions followed by the
// original email, verbatim.
func BuildReplyPrompt(req models.ReplyRequest) string {
	var b strings.Builder

	b.WriteString("You are an AI assistant helping write email replies.\n")
	b.WriteString("Generate ONLY the body content for a REPLY to the email below (no greetings like 'Dear' or sign-offs like 'Best regards').\n")
	b.WriteString("Respond as if you're replying to this email — don't summarize or rephrase it.\n")
	b.WriteString("Maintain a ")
	b.WriteString(ResolveTone(req.Tone))
	b.WriteString(" tone.\n")
	b.WriteString("Do not include subject line or original email content in the reply.\n\n")

	b.WriteString(OriginalSeparator)
	b.WriteString("\n")
	b.WriteString(req.EmailContent)

	return b.String()
}
