package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/thegrumpylion/gmail-manager/internal/server"
	"golang.org/x/sync/errgroup"
)

const (
	unreadQuery          = "is:unread"
	defaultUnreadResults = 5
	maxUnreadResults     = 500
	noUnreadText         = "No unread emails found."
)

// --- get_unread_emails ---

type getUnreadEmailsInput struct {
	MaxResults float64 `json:"max_results,omitempty" jsonschema:"Maximum number of unread emails to return (default 5)"`
}

// unreadSummary is one entry of the get_unread_emails listing.
type unreadSummary struct {
	EmailID  string `json:"email_id"`
	ThreadID string `json:"thread_id"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Snippet  string `json:"snippet"`
}

func registerGetUnreadEmails(srv *server.Server, t *tools) {
	server.AddTool(srv, &mcp.Tool{
		Name:        "get_unread_emails",
		Description: "Retrieve unread emails from the inbox. Returns email ID, thread ID, sender, subject and a preview snippet for each message. Use the thread ID with create_draft_reply.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: server.BoolPtr(true),
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input getUnreadEmailsInput) (*mcp.CallToolResult, any, error) {
		text, err := t.unreadEmails(ctx, input.MaxResults)
		if err != nil {
			return t.failure("get_unread_emails", "Error: ", err), nil, nil
		}
		return textResult(text), nil, nil
	})
}

// normalizeMaxResults truncates f toward zero, then applies the default and
// the API maximum.
func normalizeMaxResults(f float64) int64 {
	if f >= maxUnreadResults {
		return maxUnreadResults
	}
	if n := int64(f); n > 0 {
		return n
	}
	return defaultUnreadResults
}

func (t *tools) unreadEmails(ctx context.Context, maxResults float64) (string, error) {
	mb, err := t.dial(ctx)
	if err != nil {
		return "", err
	}

	matches, err := mb.ListMessages(ctx, unreadQuery, normalizeMaxResults(maxResults))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return noUnreadText, nil
	}

	// Fetches run concurrently; each result lands at its match index.
	summaries := make([]unreadSummary, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range matches {
		g.Go(func() error {
			msg, err := mb.GetMessage(gctx, m.Id)
			if err != nil {
				return err
			}
			if msg == nil {
				return fmt.Errorf("getting message %s: empty response", m.Id)
			}
			summaries[i] = unreadSummary{
				EmailID:  msg.Id,
				ThreadID: msg.ThreadId,
				From:     headerValue(msg, headerFrom),
				Subject:  headerValue(msg, headerSubject),
				Snippet:  msg.Snippet,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	listing, err := marshalListing(summaries)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Found %d unread emails:\n\n%s", len(summaries), listing), nil
}

// marshalListing pretty-prints v with two-space indentation and without
// HTML escaping, so addresses like "Ann <ann@example.com>" stay readable.
func marshalListing(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding listing: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
