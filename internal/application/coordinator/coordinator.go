// Package coordinator turns user intents into backend calls and keeps the session,
// conversation registry and message log consistent with the backend by refetching
// whatever a mutation may have touched.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/document"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/domain/share"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

// ChatAPI posts chat turns. The reply is not used; the thread is refetched instead.
type ChatAPI interface {
	SendMessage(ctx context.Context, conversationID, text string, useRAG bool) error
}

// Coordinator is safe for concurrent use. Intents on different actions may run in
// parallel; a duplicate intent on a guarded action fails with a BUSY error.
type Coordinator struct {
	session   *session.Store
	registry  *conversation.Registry
	messages  *message.Log
	documents *document.Service
	code      *codeexec.Service
	viewer    *share.Viewer
	chat      ChatAPI
	notifier  notice.Notifier
	log       zerolog.Logger

	guards map[notice.Action]*semaphore.Weighted

	sendMu  sync.Mutex
	sending map[string]*semaphore.Weighted

	unsubscribe func()
}

// New wires the stores together. The message log follows the registry's active
// conversation from here on.
func New(
	sessions *session.Store,
	registry *conversation.Registry,
	messages *message.Log,
	documents *document.Service,
	code *codeexec.Service,
	viewer *share.Viewer,
	chat ChatAPI,
	notifier notice.Notifier,
	log zerolog.Logger,
) *Coordinator {
	if notifier == nil {
		notifier = notice.NotifierFunc(func(notice.Notice) {})
	}
	c := &Coordinator{
		session:   sessions,
		registry:  registry,
		messages:  messages,
		documents: documents,
		code:      code,
		viewer:    viewer,
		chat:      chat,
		notifier:  notifier,
		log:       log.With().Str("component", "sync-coordinator").Logger(),
		guards: map[notice.Action]*semaphore.Weighted{
			notice.ActionCreate:  semaphore.NewWeighted(1),
			notice.ActionDelete:  semaphore.NewWeighted(1),
			notice.ActionUpload:  semaphore.NewWeighted(1),
			notice.ActionExecute: semaphore.NewWeighted(1),
		},
		sending: map[string]*semaphore.Weighted{},
	}
	c.unsubscribe = registry.SubscribeActive(messages.Retarget)
	return c
}

// Close detaches the message log from the registry.
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Session returns the session store.
func (c *Coordinator) Session() *session.Store { return c.session }

// Registry returns the conversation registry.
func (c *Coordinator) Registry() *conversation.Registry { return c.registry }

// Messages returns the message log.
func (c *Coordinator) Messages() *message.Log { return c.messages }

// MaxUploadBytes returns the file upload limit.
func (c *Coordinator) MaxUploadBytes() int64 { return c.documents.MaxBytes() }

// acquire takes the guard of action or fails with BUSY.
func (c *Coordinator) acquire(ctx context.Context, action notice.Action) (func(), error) {
	guard, ok := c.guards[action]
	if !ok {
		return func() {}, nil
	}
	if !guard.TryAcquire(1) {
		return nil, busy(ctx, action)
	}
	return func() { guard.Release(1) }, nil
}

// acquireSend takes the send guard of conversationID or fails with BUSY.
func (c *Coordinator) acquireSend(ctx context.Context, conversationID string) (func(), error) {
	c.sendMu.Lock()
	guard, ok := c.sending[conversationID]
	if !ok {
		guard = semaphore.NewWeighted(1)
		c.sending[conversationID] = guard
	}
	c.sendMu.Unlock()

	if !guard.TryAcquire(1) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerApplication, platformerrors.ErrorTypeBusy,
			"a message is already being sent in this conversation", nil, map[string]any{
				"conversation_id": conversationID,
			})
	}
	return func() { guard.Release(1) }, nil
}

func busy(ctx context.Context, action notice.Action) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerApplication, platformerrors.ErrorTypeBusy,
		"another "+string(action)+" is in progress", nil, map[string]any{
			"action": string(action),
		})
}

// authorize fails unless a user is signed in.
func (c *Coordinator) authorize(ctx context.Context) error {
	_, err := c.session.RequireAuthenticated(ctx)
	return err
}

// fail logs err, reports it as a failure notice and returns it wrapped for the
// application layer. Validation and busy errors, and any error when prefix is
// empty, are shown verbatim; anything else is shown as prefix followed by the
// backend's message when it sent one.
func (c *Coordinator) fail(ctx context.Context, action notice.Action, prefix string, err error) error {
	wrapped := platformerrors.AsError(ctx, platformerrors.LayerApplication, err, string(action))

	switch {
	case wrapped.Type == platformerrors.ErrorTypeValidation || wrapped.Type == platformerrors.ErrorTypeBusy:
		c.log.Debug().Str("action", string(action)).Msg(wrapped.Message)
		c.notifier.Notify(notice.Failed(action, platformerrors.UserMessage(err)))
	case prefix == "":
		platformerrors.LogError(c.log, wrapped)
		c.notifier.Notify(notice.Failed(action, platformerrors.UserMessage(err)))
	default:
		platformerrors.LogError(c.log, wrapped)
		c.notifier.Notify(notice.Failed(action, prefix+reason(err)))
	}
	return wrapped
}

// reason is the text a person should see for err.
func reason(err error) string {
	if msg := platformerrors.ServerMessage(err); msg != "" {
		return msg
	}
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		for platformErr.Err != nil {
			var inner *platformerrors.PlatformError
			if !errors.As(platformErr.Err, &inner) {
				break
			}
			platformErr = inner
		}
		return platformErr.Message
	}
	return err.Error()
}
