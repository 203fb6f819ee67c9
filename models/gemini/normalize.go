package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/defendhub/sentinel/models"
)

// InterruptedText replaces a remote reply that carried no text at all.
const InterruptedText = "Connection interrupted. Re-establishing link..."

// rawReply tolerates a null or missing action.
type rawReply struct {
	Text   *string        `json:"text"`
	Action *models.Action `json:"action"`
}

// StripCodeFence removes a surrounding markdown code fence such as
// "```json\n{...}\n```". Text without a fence is returned trimmed. An info
// string is only dropped when it is a single token on the fence line, or a
// bare "json" directly followed by the payload.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimLeft(strings.TrimPrefix(s, "```"), " \t")
	s = strings.TrimSuffix(s, "```")

	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if isInfoString(strings.TrimSpace(s[:nl])) {
			s = s[nl+1:]
		}
	} else if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
		if rest := s[4:]; rest == "" || strings.ContainsAny(rest[:1], " \t\r{[") {
			s = rest
		}
	}
	return strings.TrimSpace(s)
}

// isInfoString reports whether line looks like a fence language tag.
func isInfoString(line string) bool {
	for _, r := range line {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// NormalizeReply turns a raw model payload into a Reply.
//
// The returned Reply is always usable. A non-nil error wraps
// models.ErrMalformedReply and only reports that the payload was not the
// structured object; the stripped text is then delivered as-is. Actions
// outside the route set or without a label are dropped.
func NormalizeReply(raw string) (models.Reply, error) {
	stripped := StripCodeFence(raw)
	if stripped == "" {
		return models.Reply{Text: InterruptedText}, nil
	}

	// A JSON-encoded string wrapping the object is unwrapped once.
	var inner string
	if json.Unmarshal([]byte(stripped), &inner) == nil {
		s := StripCodeFence(inner)
		if !strings.HasPrefix(s, "{") {
			if s == "" {
				return models.Reply{Text: InterruptedText}, nil
			}
			return models.Reply{Text: s}, fmt.Errorf("%w: string payload", models.ErrMalformedReply)
		}
		stripped = s
	}

	var parsed rawReply
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return models.Reply{Text: stripped}, fmt.Errorf("%w: %v", models.ErrMalformedReply, err)
	}
	if parsed.Text == nil {
		return models.Reply{Text: stripped}, fmt.Errorf("%w: missing text field", models.ErrMalformedReply)
	}

	reply := models.Reply{Text: strings.TrimSpace(*parsed.Text)}
	if reply.Text == "" {
		reply.Text = InterruptedText
	}
	if parsed.Action != nil && parsed.Action.Validate() == nil {
		reply.Action = parsed.Action
	}
	return reply, nil
}
