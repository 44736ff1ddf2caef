package gmail

import (
	"encoding/base64"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
)

// Header names are matched exactly, first match wins.
const (
	headerFrom      = "From"
	headerSubject   = "Subject"
	headerMessageID = "Message-ID"
)

// headerValue returns the value of the first header named exactly name, or
// "" when the message, its payload or the header is missing.
func headerValue(msg *gmailapi.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if h != nil && h.Name == name {
			return h.Value
		}
	}
	return ""
}

// encodeWord always encodes s as an RFC 2047 base64 encoded-word.
func encodeWord(s string) string {
	return "=?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}

// reply holds the headers and body of a threaded reply.
type reply struct {
	To        string
	Subject   string
	MessageID string
	Body      string
}

// replyFromThread anchors a reply on the first (oldest) message of thread.
func replyFromThread(thread *gmailapi.Thread, body string) reply {
	var first *gmailapi.Message
	if thread != nil && len(thread.Messages) > 0 {
		first = thread.Messages[0]
	}
	return reply{
		To:        headerValue(first, headerFrom),
		Subject:   headerValue(first, headerSubject),
		MessageID: headerValue(first, headerMessageID),
		Body:      body,
	}
}

// Raw renders the reply as an RFC 2822 message with CRLF line endings. The
// "Re: " prefix stays outside the encoded word.
func (r reply) Raw() string {
	lines := []string{
		"To: " + r.To,
		"Subject: Re: " + encodeWord(r.Subject),
		"In-Reply-To: " + r.MessageID,
		"References: " + r.MessageID,
		"Content-Type: text/plain; charset=utf-8",
		"MIME-Version: 1.0",
		"",
		r.Body,
	}
	return strings.Join(lines, "\r\n")
}

// encodeRaw applies the Gmail transport encoding: URL-safe base64 with the
// trailing padding stripped.
func encodeRaw(raw string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeRaw reverses encodeRaw. Padded input is accepted too.
func decodeRaw(encoded string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
