package share

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

type stubAPI struct {
	gotToken string
	res      *SharedConversation
	err      error
}

func (s *stubAPI) GetShared(ctx context.Context, token string) (*SharedConversation, error) {
	s.gotToken = token
	return s.res, s.err
}

func TestParseToken(t *testing.T) {
	tests := map[string]string{
		"abc123":                                  "abc123",
		"  abc123 ":                               "abc123",
		"http://localhost:5173/shared/abc123":     "abc123",
		"https://chat.example.com/shared/abc123/": "abc123",
		"/shared/abc123":                          "abc123",
		"":                                        "",
		"http://localhost:5173/shared/":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseToken(in), in)
	}
}

func TestOpen(t *testing.T) {
	api := &stubAPI{res: &SharedConversation{
		Conversation: conversation.Conversation{ID: "c1", Title: "Greeting", Owner: conversation.Owner{ID: "u1", Name: "Ada"}},
	}}
	v := NewViewer(api, zerolog.Nop())

	shared, err := v.Open(context.Background(), "http://localhost:5173/shared/tok")

	require.NoError(t, err)
	assert.Equal(t, "tok", api.gotToken)
	assert.Equal(t, "Greeting", shared.Title())
	assert.Equal(t, "Ada", shared.SharedBy())
	assert.NotNil(t, shared.Messages)
}

func TestOpen_FailureIsNotFound(t *testing.T) {
	v := NewViewer(&stubAPI{err: errors.New("404")}, zerolog.Nop())

	_, err := v.Open(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
	assert.Equal(t, "Conversation not found or not shared", platformerrors.UserMessage(err))
}

func TestDisplayFallbacks(t *testing.T) {
	var s SharedConversation
	assert.Equal(t, "Untitled Conversation", s.Title())
	assert.Equal(t, "Unknown", s.SharedBy())
}
