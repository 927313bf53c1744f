package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/utils/observable"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const (
	loginFailed    = "Login failed"
	registerFailed = "Registration failed"
)

// TokenStore persists the session token under a single fixed key.
type TokenStore interface {
	Get() (token string, ok bool, err error)
	Set(token string) error
	Delete() error
}

// AuthAPI is the backend surface used by the Store. The stored token, when present,
// is attached to every call by the implementation.
type AuthAPI interface {
	Register(ctx context.Context, in Registration) (*AuthResult, error)
	Login(ctx context.Context, in Credentials) (*AuthResult, error)
	Me(ctx context.Context) (*Identity, error)
}

// Store owns the authenticated session and its persisted token.
type Store struct {
	tokens   TokenStore
	api      AuthAPI
	validate *validator.Validate
	state    *observable.Value[Session]
	epoch    atomic.Uint64
	log      zerolog.Logger
}

// NewStore creates a Store in the loading state.
func NewStore(tokens TokenStore, api AuthAPI, log zerolog.Logger) *Store {
	return &Store{
		tokens:   tokens,
		api:      api,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		state:    observable.New(Session{Status: StatusLoading}),
		log:      log.With().Str("component", "session-store").Logger(),
	}
}

// Current returns the latest session snapshot.
func (s *Store) Current() Session {
	return s.state.Get()
}

// Subscribe registers fn for session changes.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}

// RequireAuthenticated fails unless a user is signed in.
func (s *Store) RequireAuthenticated(ctx context.Context) (Session, error) {
	cur := s.state.Get()
	switch cur.Status {
	case StatusAuthenticated:
		return cur, nil
	case StatusLoading:
		return cur, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "session is still loading", nil)
	default:
		return cur, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "not signed in", nil)
	}
}

// Restore validates the stored token against the backend. A missing token ends in
// the anonymous state without a network call; a rejected token is deleted.
func (s *Store) Restore(ctx context.Context) error {
	epoch := s.epoch.Load()
	s.state.Set(Session{Status: StatusLoading})

	token, ok, err := s.tokens.Get()
	if err != nil {
		s.settle(epoch, Session{Status: StatusAnonymous})
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to read stored token", err)
	}
	if !ok || token == "" {
		s.settle(epoch, Session{Status: StatusAnonymous})
		s.log.Debug().Msg("no stored token")
		return nil
	}

	identity, err := s.api.Me(ctx)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) && s.epoch.Load() == epoch {
			if delErr := s.tokens.Delete(); delErr != nil {
				s.log.Error().Err(delErr).Msg("failed to delete rejected token")
			}
			s.log.Info().Msg("stored token rejected")
		}
		s.settle(epoch, Session{Status: StatusAnonymous})
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "restore session")
	}

	if s.settle(epoch, Session{Status: StatusAuthenticated, Identity: *identity, Token: token}) {
		s.log.Info().Str("user_id", identity.UserID).Msg("session restored")
	}
	return nil
}

// Login authenticates with email and password.
func (s *Store) Login(ctx context.Context, email, password string) (Session, error) {
	in := Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return s.state.Get(), platformerrors.Validation(ctx, platformerrors.LayerDomain, describe(err))
	}

	res, err := s.api.Login(ctx, in)
	if err != nil {
		return s.state.Get(), s.authFailure(ctx, err, loginFailed)
	}
	return s.establish(ctx, res)
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, name, email, password string) (Session, error) {
	in := Registration{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return s.state.Get(), platformerrors.Validation(ctx, platformerrors.LayerDomain, describe(err))
	}

	res, err := s.api.Register(ctx, in)
	if err != nil {
		return s.state.Get(), s.authFailure(ctx, err, registerFailed)
	}
	return s.establish(ctx, res)
}

// Logout forgets the token and the session. No backend call is made.
func (s *Store) Logout() error {
	s.epoch.Add(1)
	err := s.tokens.Delete()
	s.state.Set(Session{Status: StatusAnonymous})
	if err != nil {
		return fmt.Errorf("delete stored token: %w", err)
	}
	s.log.Info().Msg("signed out")
	return nil
}

func (s *Store) establish(ctx context.Context, res *AuthResult) (Session, error) {
	if res == nil || res.Token == "" {
		return s.state.Get(), platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "backend returned no token", nil)
	}
	if err := s.tokens.Set(res.Token); err != nil {
		return s.state.Get(), platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to store token", err)
	}

	s.epoch.Add(1)
	next := Session{Status: StatusAuthenticated, Identity: res.Identity, Token: res.Token}
	s.state.Set(next)
	s.log.Info().Str("user_id", res.UserID).Msg("signed in")
	return next, nil
}

// settle publishes next unless a login, register or logout happened since epoch was read.
func (s *Store) settle(epoch uint64, next Session) bool {
	if s.epoch.Load() != epoch {
		return false
	}
	s.state.Set(next)
	return true
}

func (s *Store) authFailure(ctx context.Context, err error, fallback string) error {
	msg := platformerrors.ServerMessage(err)
	if msg == "" {
		msg = fallback
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.TypeOf(err), msg, err)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email address")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
