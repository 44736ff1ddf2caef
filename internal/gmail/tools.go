// Package gmail provides MCP tools for reading unread mail and drafting
// threaded replies through the Gmail API.
package gmail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/thegrumpylion/gmail-manager/internal/auth"
	"github.com/thegrumpylion/gmail-manager/internal/logging"
	"github.com/thegrumpylion/gmail-manager/internal/server"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Scopes required by the Gmail tools: read-only mailbox access plus
// compose for drafts. Nothing broader is ever requested.
var Scopes = []string{
	gmailapi.GmailReadonlyScope,
	gmailapi.GmailComposeScope,
}

// Dialer returns a freshly authorized Mailbox. It is called once per tool
// invocation; handles are never cached.
type Dialer func(ctx context.Context) (Mailbox, error)

// ServiceDialer dials the Gmail API with the token held by l. Extra options
// are applied after the token, e.g. to point the client at another endpoint.
func ServiceDialer(l *auth.Loader, opts ...option.ClientOption) Dialer {
	return func(ctx context.Context) (Mailbox, error) {
		opt, err := l.ClientOption(ctx)
		if err != nil {
			return nil, err
		}
		svc, err := gmailapi.NewService(ctx, append([]option.ClientOption{opt}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("creating Gmail service: %w", err)
		}
		return NewMailbox(svc), nil
	}
}

// tools carries what every handler needs.
type tools struct {
	dial   Dialer
	logger *slog.Logger
}

// RegisterTools registers the Gmail tools on srv.
func RegisterTools(srv *server.Server, dial Dialer) {
	t := &tools{dial: dial, logger: srv.Logger()}
	registerGetUnreadEmails(srv, t)
	registerCreateDraftReply(srv, t)
}

// failure logs err and turns it into a normal text result so the calling
// agent always gets a readable answer.
func (t *tools) failure(tool, prefix string, err error) *mcp.CallToolResult {
	t.logger.Warn("tool call failed", logging.Tool(tool), logging.Err(err))
	return textResult(prefix + err.Error())
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
