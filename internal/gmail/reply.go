package gmail

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/thegrumpylion/gmail-manager/internal/server"
	gmailapi "google.golang.org/api/gmail/v1"
)

// --- create_draft_reply ---

type createDraftReplyInput struct {
	ThreadID  string `json:"thread_id" jsonschema:"The thread ID of the email you are replying to"`
	ReplyBody string `json:"reply_body" jsonschema:"The text content of your reply"`
}

func registerCreateDraftReply(srv *server.Server, t *tools) {
	server.AddTool(srv, &mcp.Tool{
		Name:        "create_draft_reply",
		Description: "Create a draft reply in an existing thread. The reply is addressed to the sender of the first message in the thread and keeps threading via In-Reply-To and References. The draft is saved, not sent.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: server.BoolPtr(false),
			OpenWorldHint:   server.BoolPtr(true),
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input createDraftReplyInput) (*mcp.CallToolResult, any, error) {
		draftID, err := t.createDraftReply(ctx, input.ThreadID, input.ReplyBody)
		if err != nil {
			return t.failure("create_draft_reply", "Error creating draft: ", err), nil, nil
		}
		return textResult(fmt.Sprintf("Draft created successfully! Draft ID: %s", draftID)), nil, nil
	})
}

func (t *tools) createDraftReply(ctx context.Context, threadID, body string) (string, error) {
	mb, err := t.dial(ctx)
	if err != nil {
		return "", err
	}

	thread, err := mb.GetThread(ctx, threadID)
	if err != nil {
		return "", err
	}

	r := replyFromThread(thread, body)
	created, err := mb.CreateDraft(ctx, &gmailapi.Draft{
		Message: &gmailapi.Message{
			ThreadId: threadID,
			Raw:      encodeRaw(r.Raw()),
		},
	})
	if err != nil {
		return "", err
	}
	if created == nil {
		return "", errors.New("creating draft: empty response")
	}
	return created.Id, nil
}
