//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/application/coordinator"
	"jan-server/clients/jan-chat/internal/config"
	"jan-server/clients/jan-chat/internal/domain/codeexec"
	"jan-server/clients/jan-chat/internal/domain/conversation"
	"jan-server/clients/jan-chat/internal/domain/document"
	"jan-server/clients/jan-chat/internal/domain/message"
	"jan-server/clients/jan-chat/internal/domain/notice"
	"jan-server/clients/jan-chat/internal/domain/session"
	"jan-server/clients/jan-chat/internal/domain/share"
	"jan-server/clients/jan-chat/internal/infrastructure/backendapi"
	"jan-server/clients/jan-chat/internal/infrastructure/tokenstore"
)

var backendSet = wire.NewSet(
	newTokenStore,
	newBackendClient,
	wire.Bind(new(session.TokenStore), new(*tokenstore.FileStore)),
	wire.Bind(new(session.AuthAPI), new(*backendapi.Client)),
	wire.Bind(new(conversation.API), new(*backendapi.Client)),
	wire.Bind(new(message.API), new(*backendapi.Client)),
	wire.Bind(new(document.API), new(*backendapi.Client)),
	wire.Bind(new(codeexec.API), new(*backendapi.Client)),
	wire.Bind(new(share.API), new(*backendapi.Client)),
	wire.Bind(new(coordinator.ChatAPI), new(*backendapi.Client)),
)

var domainSet = wire.NewSet(
	session.NewStore,
	conversation.NewRegistry,
	message.NewLog,
	newDocumentService,
	codeexec.NewService,
	share.NewViewer,
)

// BuildApplication declares the dependency graph of the jan-chat commands.
func BuildApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(
		backendSet,
		domainSet,
		newNoticeQueue,
		wire.Bind(new(notice.Notifier), new(*notice.Queue)),
		coordinator.New,
		NewApplication,
	)
	return nil, nil
}
