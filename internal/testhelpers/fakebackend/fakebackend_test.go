package fakebackend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/infrastructure/backendapi"
	"jan-server/clients/jan-chat/internal/infrastructure/tokenstore"
	"jan-server/clients/jan-chat/internal/testhelpers/fakebackend"
	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

func setup(t *testing.T, opts ...fakebackend.Option) (*fakebackend.Server, *backendapi.Client, *tokenstore.MemoryStore) {
	t.Helper()
	opts = append([]fakebackend.Option{fakebackend.WithBcryptCost(bcrypt.MinCost)}, opts...)
	fb := fakebackend.New(opts...)
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)

	tokens := tokenstore.NewMemoryStore("")
	return fb, backendapi.NewClient(srv.URL+"/api", 0, tokens, zerolog.Nop()), tokens
}

func TestAuthContract(t *testing.T) {
	_, client, tokens := setup(t)
	ctx := context.Background()

	reg, err := client.Register(ctx, session.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.UserID)

	_, err = client.Register(ctx, session.Registration{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, "User already exists", platformerrors.ServerMessage(err))

	_, err = client.Login(ctx, session.Credentials{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
	assert.Equal(t, "Invalid credentials", platformerrors.ServerMessage(err))

	_, err = client.Me(ctx)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))

	login, err := client.Login(ctx, session.Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, tokens.Set(login.Token))

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, me.UserID)
	assert.Equal(t, "Ada", me.Name)
}

func TestExpiredTokenRejected(t *testing.T) {
	fb, client, tokens := setup(t)
	userID, _, err := fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	expired, err := fb.IssueExpiredToken(userID)
	require.NoError(t, err)
	require.NoError(t, tokens.Set(expired))

	_, err = client.Me(context.Background())

	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
	assert.Equal(t, "Token is not valid", platformerrors.ServerMessage(err))
}

func TestConversationContract(t *testing.T) {
	fb, client, tokens := setup(t, fakebackend.WithShareBaseURL("http://chat.test"))
	ctx := context.Background()
	_, token, err := fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, tokens.Set(token))

	first, err := client.CreateConversation(ctx, conversation.DefaultTitle)
	require.NoError(t, err)
	second, err := client.CreateConversation(ctx, conversation.DefaultTitle)
	require.NoError(t, err)

	list, err := client.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	require.NoError(t, client.SendMessage(ctx, first.ID, "Hello there friend", false))

	list, err = client.ListConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID, "recently updated first")
	assert.Equal(t, "Hello there friend", list[0].Title)

	msgs, err := client.ListMessages(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "Echo: Hello there friend", msgs[1].Content)

	url, err := client.ShareConversation(ctx, first.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^http://chat\.test/shared/[0-9a-f]{32}$`, url)

	require.NoError(t, tokens.Delete())
	shared, err := client.GetShared(ctx, url[len("http://chat.test/shared/"):])
	require.NoError(t, err)
	assert.Equal(t, "Ada", shared.SharedBy())
	assert.Len(t, shared.Messages, 2)
	require.NoError(t, tokens.Set(token))

	summary, err := client.SummarizeConversation(ctx, first.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "2 messages")

	require.NoError(t, client.DeleteConversation(ctx, first.ID))
	err = client.DeleteConversation(ctx, first.ID)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestExecuteAndUpload(t *testing.T) {
	fb, client, tokens := setup(t)
	ctx := context.Background()
	_, token, err := fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, tokens.Set(token))

	res, err := client.ExecuteCode(ctx, "throw new Error('x')", codeexec.JavaScript)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "javascript", res.Language)

	msg, err := client.UploadDocument(ctx, "facts", "Text Document")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Equal(t, []string{"Text Document"}, fb.Documents())
}

func TestHookCanFailRequests(t *testing.T) {
	fb, client, tokens := setup(t)
	_, token, err := fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, tokens.Set(token))

	fb.SetHook(func(c *gin.Context) bool {
		if c.Request.URL.Path == "/api/conversations" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "maintenance"})
			return false
		}
		return true
	})

	_, err = client.ListConversations(context.Background())

	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal))
	assert.Equal(t, 1, fb.CountRequests("GET /api/conversations"))
}
