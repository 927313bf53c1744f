package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"jan-server/clients/jan-chat/internal/config"
	"jan-server/clients/jan-chat/internal/infrastructure/tokenstore"
	"jan-server/clients/jan-chat/internal/interfaces/console"
	"jan-server/clients/jan-chat/internal/testhelpers/fakebackend"
)

func newFlagCommand(t *testing.T, set map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("api-url", "", "")
	cmd.Flags().String("token-file", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	for name, value := range set {
		require.NoError(t, cmd.Flags().Set(name, value))
	}
	return cmd
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	t.Setenv("JAN_CHAT_CONFIG", "")
	tokenFile := filepath.Join(t.TempDir(), "token.yaml")

	tests := []struct {
		name      string
		flags     map[string]string
		wantURL   string
		wantLevel string
	}{
		{
			name:      "defaults",
			flags:     map[string]string{"token-file": tokenFile},
			wantURL:   "http://localhost:5000/api",
			wantLevel: "warn",
		},
		{
			name:      "api url is trimmed",
			flags:     map[string]string{"token-file": tokenFile, "api-url": "http://chat.test/api/"},
			wantURL:   "http://chat.test/api",
			wantLevel: "warn",
		},
		{
			name:      "verbose wins over log level",
			flags:     map[string]string{"token-file": tokenFile, "log-level": "error", "verbose": "true"},
			wantURL:   "http://localhost:5000/api",
			wantLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(newFlagCommand(t, tt.flags))
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, cfg.APIURL)
			assert.Equal(t, tt.wantLevel, cfg.LogLevel)
			assert.Equal(t, tokenFile, cfg.TokenFile)
		})
	}
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	t.Setenv("JAN_CHAT_CONFIG", "")

	_, err := loadConfig(newFlagCommand(t, map[string]string{"log-level": "loud"}))
	require.Error(t, err)

	_, err = loadConfig(newFlagCommand(t, map[string]string{"api-url": "not a url"}))
	require.Error(t, err)
}

func TestConfirmDelete(t *testing.T) {
	tests := []struct {
		name       string
		yes        bool
		input      string
		want       bool
		wantPrompt bool
	}{
		{name: "yes flag skips the prompt", yes: true, want: true},
		{name: "answered y", input: "y\n", want: true, wantPrompt: true},
		{name: "answered yes without newline", input: "yes", want: true, wantPrompt: true},
		{name: "answered n", input: "n\n", wantPrompt: true},
		{name: "no input", input: "", wantPrompt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &cobra.Command{Use: "delete"}
			cmd.SetIn(strings.NewReader(tt.input))
			cmd.SetOut(&out)

			ok, err := confirmDelete(cmd, tt.yes)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantPrompt, strings.Contains(out.String(), console.DeletePrompt))
		})
	}
}

func TestBuildApplication(t *testing.T) {
	fb := fakebackend.New(fakebackend.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)
	_, _, err := fb.SeedUser("Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.APIURL = srv.URL + "/api"
	cfg.TokenFile = filepath.Join(t.TempDir(), "session.yaml")

	app, err := BuildApplication(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(app.coord.Close)
	ctx := context.Background()

	require.Error(t, app.signedIn(ctx))

	_, err = app.coord.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	token, ok, err := tokenstore.NewFileStore(cfg.TokenFile).Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	_, err = app.coord.Create(ctx)
	require.NoError(t, err)
	assert.Empty(t, app.notices.Drain())

	// A fresh application restores the session from the token file.
	again, err := BuildApplication(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(again.coord.Close)
	require.NoError(t, again.signedIn(ctx))
	assert.Len(t, again.coord.Registry().Snapshot().Items, 1)
}
