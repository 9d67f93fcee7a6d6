//go:build wireinject
// +build wireinject

package di

import (
	domsvc "DiabScreen/internal/domain/service"
	"DiabScreen/pkg/config"
	"DiabScreen/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes clients and sinks in reverse construction order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(appSet)
	return nil, nil, nil
}

// InitializeBundle provisions and loads the artifacts only.
func InitializeBundle(cfg *config.Config) (*domsvc.Bundle, error) {
	wire.Build(provisionSet)
	return nil, nil
}
