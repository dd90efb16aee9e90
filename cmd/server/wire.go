//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"users_api/internal/app"
	"users_api/internal/config"
	"users_api/internal/http"
	"users_api/internal/http/controller"
	"users_api/internal/logging"
	"users_api/internal/metrics"
	"users_api/internal/queue/rabbitmq"
	"users_api/internal/repository"
	"users_api/internal/service/users"
	"users_api/internal/store/memory"
)

func InitializeApp() (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		memory.New,
		wire.Bind(new(repository.UserRepository), new(*memory.Store)),
		rabbitmq.NewPublisher,
		users.NewService,
		wire.Bind(new(metrics.Counter), new(*users.Service)),
		metrics.New,
		controller.NewHandler,
		http.NewRouter,
		app.NewApp,
	)
	return &app.App{}, nil
}
