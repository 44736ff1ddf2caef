package gmail

import (
	"context"
	"fmt"

	gmailapi "google.golang.org/api/gmail/v1"
)

const userID = "me"

// Mailbox is the subset of the Gmail API the tools use.
type Mailbox interface {
	ListMessages(ctx context.Context, query string, maxResults int64) ([]*gmailapi.Message, error)
	GetMessage(ctx context.Context, id string) (*gmailapi.Message, error)
	GetThread(ctx context.Context, id string) (*gmailapi.Thread, error)
	CreateDraft(ctx context.Context, draft *gmailapi.Draft) (*gmailapi.Draft, error)
	GetProfile(ctx context.Context) (*gmailapi.Profile, error)
}

// apiMailbox adapts *gmailapi.Service to Mailbox.
type apiMailbox struct {
	svc *gmailapi.Service
}

// NewMailbox wraps a Gmail API service.
func NewMailbox(svc *gmailapi.Service) Mailbox {
	return &apiMailbox{svc: svc}
}

func (m *apiMailbox) ListMessages(ctx context.Context, query string, maxResults int64) ([]*gmailapi.Message, error) {
	resp, err := m.svc.Users.Messages.List(userID).Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return resp.Messages, nil
}

func (m *apiMailbox) GetMessage(ctx context.Context, id string) (*gmailapi.Message, error) {
	msg, err := m.svc.Users.Messages.Get(userID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return msg, nil
}

func (m *apiMailbox) GetThread(ctx context.Context, id string) (*gmailapi.Thread, error) {
	thread, err := m.svc.Users.Threads.Get(userID, id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting thread %s: %w", id, err)
	}
	return thread, nil
}

func (m *apiMailbox) CreateDraft(ctx context.Context, draft *gmailapi.Draft) (*gmailapi.Draft, error) {
	created, err := m.svc.Users.Drafts.Create(userID, draft).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}
	return created, nil
}

func (m *apiMailbox) GetProfile(ctx context.Context) (*gmailapi.Profile, error) {
	profile, err := m.svc.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}
