package coordinator

import (
	"context"

	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/infrastructure/observability"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const sessionExpired = "Your session has expired. Please sign in again."

// Bootstrap restores the stored session and, when it is valid, loads the
// conversations and the active thread. Until it returns the session is loading.
func (c *Coordinator) Bootstrap(ctx context.Context) (err error) {
	ctx, span := observability.StartActionSpan(ctx, "bootstrap")
	defer func() { observability.EndSpan(span, err) }()

	if err := c.session.Restore(ctx); err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
			c.notifier.Notify(notice.Failed(notice.ActionSession, sessionExpired))
			c.log.Info().Msg("stored session rejected")
			return nil
		}
		return c.fail(ctx, notice.ActionSession, "Could not restore session: ", err)
	}
	if !c.session.Current().Authenticated() {
		return nil
	}
	return c.LoadConversations(ctx)
}

// Login signs in and loads the user's conversations.
func (c *Coordinator) Login(ctx context.Context, email, password string) (session.Session, error) {
	s, err := c.session.Login(ctx, email, password)
	if err != nil {
		return s, c.fail(ctx, notice.ActionSession, "", err)
	}
	return s, c.afterSignIn(ctx)
}

// Register creates an account, signs it in and loads its (empty) conversations.
func (c *Coordinator) Register(ctx context.Context, name, email, password string) (session.Session, error) {
	s, err := c.session.Register(ctx, name, email, password)
	if err != nil {
		return s, c.fail(ctx, notice.ActionSession, "", err)
	}
	return s, c.afterSignIn(ctx)
}

func (c *Coordinator) afterSignIn(ctx context.Context) error {
	c.registry.Reset()
	return c.LoadConversations(ctx)
}

// Logout forgets the session and clears every store that held the user's data.
func (c *Coordinator) Logout(ctx context.Context) error {
	err := c.session.Logout()
	c.registry.Reset()
	if err != nil {
		return c.fail(ctx, notice.ActionSession, "Failed to sign out: ", err)
	}
	return nil
}
