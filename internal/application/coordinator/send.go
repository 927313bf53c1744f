package coordinator

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const (
	emptyMessage   = "Please enter a message"
	noConversation = "Select or create a conversation first"
)

// SendMessage posts text to the active conversation, then refetches its thread and
// the registry and re-resolves the active record. Nothing is appended to the log
// before the refetch.
//
// A failed post leaves every store untouched. A failed refetch after a successful
// post returns a PARTIAL_SYNC error and leaves whatever was displayed before.
func (c *Coordinator) SendMessage(ctx context.Context, text string, useRAG bool) (err error) {
	target := c.registry.ActiveID()
	ctx, span := observability.StartActionSpan(ctx, "send",
		attribute.String("conversation_id", target),
		attribute.Bool("use_rag", useRAG),
	)
	defer func() { observability.EndSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return c.fail(ctx, notice.ActionSend, "", platformerrors.Validation(ctx, platformerrors.LayerApplication, emptyMessage))
	}
	if err := c.authorize(ctx); err != nil {
		return c.fail(ctx, notice.ActionSend, "", err)
	}
	if target == "" {
		return c.fail(ctx, notice.ActionSend, "", platformerrors.Validation(ctx, platformerrors.LayerApplication, noConversation))
	}

	release, err := c.acquireSend(ctx, target)
	if err != nil {
		return c.fail(ctx, notice.ActionSend, "", err)
	}
	defer release()

	if err := c.chat.SendMessage(ctx, target, text, useRAG); err != nil {
		return c.fail(ctx, notice.ActionSend, "Failed to send message: ", err)
	}
	c.log.Debug().Str("conversation_id", target).Msg("message sent")

	_, logErr := c.messages.Load(ctx, target)
	regErr := c.registry.Load(ctx)
	c.registry.ResolveActive()

	if logErr != nil || regErr != nil {
		partial := platformerrors.NewErrorWithContext(ctx, platformerrors.LayerApplication, platformerrors.ErrorTypePartialSync,
			"message sent but refreshing failed", errors.Join(logErr, regErr), map[string]any{
				"conversation_id": target,
			})
		return c.fail(ctx, notice.ActionSync, "Message sent, but refreshing failed: ", partial)
	}
	return nil
}
