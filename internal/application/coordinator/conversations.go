package coordinator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
)

// LoadConversations refetches the registry and the thread of the active
// conversation.
func (c *Coordinator) LoadConversations(ctx context.Context) (err error) {
	ctx, span := observability.StartActionSpan(ctx, "load_conversations")
	defer func() { observability.EndSpan(span, err) }()

	if err := c.authorize(ctx); err != nil {
		return c.fail(ctx, notice.ActionRegistry, "", err)
	}
	if err := c.registry.Load(ctx); err != nil {
		return c.fail(ctx, notice.ActionRegistry, "Failed to load conversations: ", err)
	}
	return c.loadActive(ctx)
}

// loadActive refetches the thread of whichever conversation is active now.
func (c *Coordinator) loadActive(ctx context.Context) error {
	id := c.registry.ActiveID()
	if id == "" {
		return nil
	}
	if _, err := c.messages.Load(ctx, id); err != nil {
		return c.fail(ctx, notice.ActionSelect, "Failed to load messages: ", err)
	}
	return nil
}

// Create starts a new conversation. It becomes the first entry and the active one,
// with an empty thread.
func (c *Coordinator) Create(ctx context.Context) (created *conversation.Conversation, err error) {
	ctx, span := observability.StartActionSpan(ctx, "create")
	defer func() { observability.EndSpan(span, err) }()

	if err := c.authorize(ctx); err != nil {
		return nil, c.fail(ctx, notice.ActionCreate, "", err)
	}
	release, err := c.acquire(ctx, notice.ActionCreate)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionCreate, "", err)
	}
	defer release()

	created, err = c.registry.Create(ctx)
	if err != nil {
		return nil, c.fail(ctx, notice.ActionCreate, "Failed to create conversation: ", err)
	}
	return created, nil
}

// Select makes id active and loads its thread.
func (c *Coordinator) Select(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartActionSpan(ctx, "select", attribute.String("conversation_id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := c.registry.Select(ctx, id); err != nil {
		return c.fail(ctx, notice.ActionSelect, "Failed to open conversation: ", err)
	}
	if _, err := c.messages.Load(ctx, id); err != nil {
		return c.fail(ctx, notice.ActionSelect, "Failed to load messages: ", err)
	}
	return nil
}

// Delete removes id. When it was active the first remaining conversation, if any,
// becomes active and its thread is loaded.
func (c *Coordinator) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartActionSpan(ctx, "delete", attribute.String("conversation_id", id))
	defer func() { observability.EndSpan(span, err) }()

	if err := c.authorize(ctx); err != nil {
		return c.fail(ctx, notice.ActionDelete, "", err)
	}
	release, err := c.acquire(ctx, notice.ActionDelete)
	if err != nil {
		return c.fail(ctx, notice.ActionDelete, "", err)
	}
	defer release()

	before := c.registry.ActiveID()
	if err := c.registry.Delete(ctx, id); err != nil {
		return c.fail(ctx, notice.ActionDelete, "Failed to delete conversation: ", err)
	}
	if after := c.registry.ActiveID(); after != before {
		return c.loadActive(ctx)
	}
	return nil
}

// Share mints a public link for id, or for the active conversation when id is "".
func (c *Coordinator) Share(ctx context.Context, id string) (shareURL string, err error) {
	if id == "" {
		id = c.registry.ActiveID()
	}
	ctx, span := observability.StartActionSpan(ctx, "share", attribute.String("conversation_id", id))
	defer func() { observability.EndSpan(span, err) }()

	shareURL, err = c.registry.Share(ctx, id)
	if err != nil {
		return "", c.fail(ctx, notice.ActionShare, "Failed to share conversation: ", err)
	}
	c.notifier.Notify(notice.Succeeded(notice.ActionShare, "Share link created: "+shareURL))
	return shareURL, nil
}

// Summarize asks the backend for a summary of id, or of the active conversation
// when id is "".
func (c *Coordinator) Summarize(ctx context.Context, id string) (summary string, err error) {
	if id == "" {
		id = c.registry.ActiveID()
	}
	ctx, span := observability.StartActionSpan(ctx, "summarize", attribute.String("conversation_id", id))
	defer func() { observability.EndSpan(span, err) }()

	summary, err = c.registry.Summarize(ctx, id)
	if err != nil {
		return "", c.fail(ctx, notice.ActionSummary, "Failed to summarize conversation: ", err)
	}
	return summary, nil
}
