package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
)

func testMessage(id, threadID, snippet string, headers ...string) *gmailapi.Message {
	msg := &gmailapi.Message{
		Id:       id,
		ThreadId: threadID,
		Snippet:  snippet,
		Payload:  &gmailapi.MessagePart{},
	}
	for i := 0; i+1 < len(headers); i += 2 {
		msg.Payload.Headers = append(msg.Payload.Headers, &gmailapi.MessagePartHeader{
			Name:  headers[i],
			Value: headers[i+1],
		})
	}
	return msg
}

func TestHeaderValue(t *testing.T) {
	msg := testMessage("m1", "t1", "",
		"from", "lower@example.com",
		"From", "Ann <ann@example.com>",
		"From", "second@example.com",
		"Subject", "Hi",
	)

	assert.Equal(t, "Ann <ann@example.com>", headerValue(msg, headerFrom))
	assert.Equal(t, "Hi", headerValue(msg, headerSubject))
	assert.Equal(t, "", headerValue(msg, headerMessageID))
	assert.Equal(t, "", headerValue(nil, headerFrom))
	assert.Equal(t, "", headerValue(&gmailapi.Message{}, headerFrom))
}

func TestEncodeWord(t *testing.T) {
	assert.Equal(t, "=?utf-8?B?SGk=?=", encodeWord("Hi"))
	assert.Equal(t, "=?utf-8?B??=", encodeWord(""))

	// Plain ASCII is encoded too.
	got := encodeWord("Lunch plans")
	require.True(t, strings.HasPrefix(got, "=?utf-8?B?"))
	payload := strings.TrimSuffix(strings.TrimPrefix(got, "=?utf-8?B?"), "?=")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, "Lunch plans", string(decoded))
}

func TestReplyFromThread_FirstMessage(t *testing.T) {
	thread := &gmailapi.Thread{
		Id: "t1",
		Messages: []*gmailapi.Message{
			testMessage("m1", "t1", "", "From", "ann@example.com", "Subject", "Hello", "Message-ID", "<a@x>"),
			testMessage("m2", "t1", "", "From", "me@example.com", "Subject", "Re: Hello", "Message-ID", "<b@x>"),
		},
	}

	r := replyFromThread(thread, "Thanks!")
	assert.Equal(t, reply{To: "ann@example.com", Subject: "Hello", MessageID: "<a@x>", Body: "Thanks!"}, r)
}

func TestReplyFromThread_MissingHeaders(t *testing.T) {
	tests := []struct {
		name   string
		thread *gmailapi.Thread
	}{
		{"nil thread", nil},
		{"no messages", &gmailapi.Thread{Id: "t1"}},
		{"no headers", &gmailapi.Thread{Messages: []*gmailapi.Message{testMessage("m1", "t1", "")}}},
		{"message-id case differs", &gmailapi.Thread{Messages: []*gmailapi.Message{testMessage("m1", "t1", "", "Message-Id", "<a@x>")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := replyFromThread(tt.thread, "body")
			assert.Equal(t, reply{Body: "body"}, r)
		})
	}
}

func TestReplyRaw(t *testing.T) {
	r := reply{To: "ann@example.com", Subject: "Hello", MessageID: "<a@x>", Body: "Thanks!\nSee you."}

	want := "To: ann@example.com\r\n" +
		"Subject: Re: =?utf-8?B?SGVsbG8=?=\r\n" +
		"In-Reply-To: <a@x>\r\n" +
		"References: <a@x>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"MIME-Version: 1.0\r\n" +
		"\r\n" +
		"Thanks!\nSee you."
	assert.Equal(t, want, r.Raw())
}

func TestReplyRaw_SingleBlankLineSeparator(t *testing.T) {
	raw := reply{To: "a@x", Subject: "s", MessageID: "<m>", Body: "body"}.Raw()

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "body", body)
	assert.Len(t, strings.Split(head, "\r\n"), 6)
	assert.NotContains(t, head, "\r\n\r\n")
}

func TestReplyRaw_EmptyHeaders(t *testing.T) {
	raw := reply{Body: "hi"}.Raw()

	assert.True(t, strings.HasPrefix(raw, "To: \r\nSubject: Re: =?utf-8?B??=\r\nIn-Reply-To: \r\nReferences: \r\n"))
}

func TestEncodeRaw(t *testing.T) {
	// Standard base64 of these bytes is "+/8=".
	assert.Equal(t, "-_8", encodeRaw("\xfb\xff"))

	for _, s := range []string{"a", "ab", "abc", "Grüße 你好 ✓", reply{Subject: "Ünïcode", Body: "Grüße"}.Raw()} {
		enc := encodeRaw(s)
		assert.NotContains(t, enc, "=")
		assert.NotContains(t, enc, "+")
		assert.NotContains(t, enc, "/")

		dec, err := decodeRaw(enc)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestDecodeRaw_Padded(t *testing.T) {
	dec, err := decodeRaw(base64.URLEncoding.EncodeToString([]byte("ab")))
	require.NoError(t, err)
	assert.Equal(t, "ab", dec)

	_, err = decodeRaw("!!")
	assert.Error(t, err)
}
