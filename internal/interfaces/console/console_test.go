package console_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jan-server/clients/jan-chat/internal/application/coordinator"
	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/document"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/domain/share"
	"jan-server/clients/jan-chat/internal/infrastructure/backendapi"
	"jan-server/clients/jan-chat/internal/infrastructure/tokenstore"
	"jan-server/clients/jan-chat/internal/interfaces/console"
	"jan-server/clients/jan-chat/internal/testhelpers/fakebackend"
)

type fixture struct {
	fb     *fakebackend.Server
	tokens *tokenstore.MemoryStore
	queue  *notice.Queue
	coord  *coordinator.Coordinator
}

func newFixture(t *testing.T, opts ...fakebackend.Option) *fixture {
	t.Helper()
	opts = append([]fakebackend.Option{fakebackend.WithBcryptCost(bcrypt.MinCost)}, opts...)
	fb := fakebackend.New(opts...)
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)

	nop := zerolog.Nop()
	tokens := tokenstore.NewMemoryStore("")
	client := backendapi.NewClient(srv.URL+"/api", 0, tokens, nop)
	queue := notice.NewQueue(64, nop)
	coord := coordinator.New(
		session.NewStore(tokens, client, nop),
		conversation.NewRegistry(client, nop),
		message.NewLog(client, nop),
		document.NewService(client, 0, nop),
		codeexec.NewService(client, nop),
		share.NewViewer(client, nop),
		client,
		queue,
		nop,
	)
	t.Cleanup(coord.Close)
	return &fixture{fb: fb, tokens: tokens, queue: queue, coord: coord}
}

func (f *fixture) signIn(t *testing.T) string {
	t.Helper()
	userID, token, err := f.fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Set(token))
	require.NoError(t, f.coord.Bootstrap(context.Background()))
	return userID
}

func (f *fixture) run(t *testing.T, script string) string {
	t.Helper()
	var out bytes.Buffer
	c := console.New(f.coord, f.queue.C(), strings.NewReader(script), &out, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx))
	return out.String()
}

func TestConsole_CreateAndSend(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	out := f.run(t, "/new\nhello there\n")

	assert.Contains(t, out, "Signed in as Ada <ada@example.com>")
	assert.Contains(t, out, "── New Conversation ──")
	assert.Contains(t, out, "You:\n  hello there")
	assert.Contains(t, out, "Assistant:\n  Echo: hello there")
	assert.Contains(t, out, `Conversation renamed to "hello there"`)
}

func TestConsole_ExecuteFillsCompose(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)

	out := f.run(t, "/exec python print(1)\n/compose\n/rag maybe\n/bogus\n/quit\nnot sent\n")

	assert.Contains(t, out, "**Code Execution (python):**")
	assert.Contains(t, out, "Compose buffer:")
	assert.Contains(t, out, "[ok] Code executed successfully!")
	assert.Contains(t, out, "Usage: /rag on|off")
	assert.Contains(t, out, "Unknown command /bogus")
	assert.Zero(t, f.fb.CountRequests("POST /api/chat/message"))
}

func TestConsole_ListSelectAndDelete(t *testing.T) {
	f := newFixture(t)
	uid := f.signIn(t)
	f.fb.SeedConversation(uid, "First")
	f.fb.SeedConversation(uid, "Second")
	require.NoError(t, f.coord.LoadConversations(context.Background()))

	out := f.run(t, "/list\n/select 2\n/delete 1\ny\n/list\n/select 9\n")

	assert.Contains(t, out, console.DeletePrompt)
	assert.Contains(t, out, "1. Second")
	assert.Contains(t, out, "2. First")
	assert.Contains(t, out, "── First ──")
	assert.Contains(t, out, "No conversation number 9.")
	assert.Equal(t, []string{"First"}, titlesOf(f.coord.Registry().Snapshot().Items))
}

func TestConsole_DeleteNeedsConfirmation(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{name: "declined", script: "/delete 1\nn\n"},
		{name: "empty answer", script: "/delete 1\n\n"},
		{name: "input ends at the prompt", script: "/delete 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			uid := f.signIn(t)
			f.fb.SeedConversation(uid, "Keep me")
			require.NoError(t, f.coord.LoadConversations(context.Background()))

			out := f.run(t, tt.script)

			assert.Contains(t, out, console.DeletePrompt)
			assert.Zero(t, f.fb.CountRequests("DELETE /api/conversations/"+f.coord.Registry().ActiveID()))
			assert.Equal(t, []string{"Keep me"}, titlesOf(f.coord.Registry().Snapshot().Items))
		})
	}
}

func TestConfirmed(t *testing.T) {
	for answer, want := range map[string]bool{
		"y": true, "Y": true, " yes ": true, "YES": true,
		"": false, "n": false, "no": false, "yep": false,
	} {
		assert.Equal(t, want, console.Confirmed(answer), "answer %q", answer)
	}
}

func TestConsole_UploadRejectsWrongType(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	out := f.run(t, "/upload "+path+"\n")

	assert.Contains(t, out, "[error] Only PDF, DOCX, and TXT files are allowed")
	assert.Zero(t, f.fb.CountRequests("POST /api/chat/upload-file"))
}

func TestConsole_SharedViewWithoutSession(t *testing.T) {
	f := newFixture(t, fakebackend.WithShareBaseURL("http://chat.test"))
	f.signIn(t)
	ctx := context.Background()
	_, err := f.coord.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, f.coord.SendMessage(ctx, "public thoughts", false))
	link, err := f.coord.Share(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.coord.Logout(ctx))
	f.queue.Drain()

	out := f.run(t, "/shared "+link+"\n/whoami\n")

	assert.Contains(t, out, "public thoughts\nShared by Ada")
	assert.Contains(t, out, "Not signed in.")
}

func titlesOf(items []conversation.Conversation) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.Title)
	}
	return out
}
