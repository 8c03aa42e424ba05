// Package normalize extracts canonical message fields from webhook payloads
// whose shape varies across WATI versions and bot backend configurations.
// Each field is resolved through an ordered list of JSON path candidates;
// the first present, non-empty match wins.
package normalize

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Candidate paths per field, highest priority first. gjson path syntax.
var (
	inboundPhonePaths = []string{
		"waId",
		"whatsappNumber",
		"contact.waId",
		"data.waId",
		"data.whatsappNumber",
		"data.contact.waId",
	}

	inboundTextPaths = []string{
		"message.text",
		"text",
		"message.body",
		"data.message.text",
		"data.text",
	}

	replyConversationPaths = []string{
		"conversationId",
		"data.conversationId",
	}

	replyTextPaths = []string{
		"payload.text",
		"text",
		"message.text",
		"data.payload.text",
	}

	// Synchronous bot responses wrap replies in a responses array.
	botResponseTextPaths = append([]string{
		"responses.0.payload.text",
		"responses.0.text",
	}, replyTextPaths...)
)

// Inbound holds the canonical fields of a user-originated webhook payload.
// Empty fields mean the payload had no usable candidate; that is a no-op
// condition for the caller, never an error.
type Inbound struct {
	Phone string
	Text  string
}

// Reply holds the canonical fields of a bot-originated payload.
type Reply struct {
	ConversationID string
	Text           string
}

// InboundFields extracts phone and text from a provider webhook body.
func InboundFields(body []byte) Inbound {
	return Inbound{
		Phone: firstString(body, inboundPhonePaths),
		Text:  firstString(body, inboundTextPaths),
	}
}

// ReplyFields extracts conversation id and text from a bot webhook body.
func ReplyFields(body []byte) Reply {
	return Reply{
		ConversationID: firstString(body, replyConversationPaths),
		Text:           firstString(body, replyTextPaths),
	}
}

// BotResponseText extracts the reply text from a synchronous bot response
// body. Returns "" when the response carries no extractable reply, which
// signals that the reply will arrive later through the reply webhook.
func BotResponseText(body []byte) string {
	return firstString(body, botResponseTextPaths)
}

// HasBotResponses reports whether a synchronous bot response carries at least
// one entry in its responses array, whatever its shape.
func HasBotResponses(body []byte) bool {
	result := gjson.GetBytes(body, "responses")
	return result.IsArray() && len(result.Array()) > 0
}

// firstString walks the candidate paths in priority order and returns the
// first value that is a non-empty string after trimming. Malformed or empty
// bodies resolve to "".
func firstString(body []byte, paths []string) string {
	if len(body) == 0 {
		return ""
	}
	for _, path := range paths {
		result := gjson.GetBytes(body, path)
		// Providers are inconsistent about quoting numeric ids, so numbers
		// count as candidates too. Objects, arrays and booleans do not.
		if result.Type != gjson.String && result.Type != gjson.Number {
			continue
		}
		if value := strings.TrimSpace(result.String()); value != "" {
			return value
		}
	}
	return ""
}
