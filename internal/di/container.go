// Package di provides dependency injection configuration for the Grimoire server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/config"
	"github.com/grimoireapp/grimoire-server/internal/di/providers"
	"github.com/grimoireapp/grimoire-server/internal/logger"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Storage layer
	do.Provide(injector, providers.ProvideImageStorage)
	do.Provide(injector, providers.ProvideImageOptimizer)
	do.Provide(injector, providers.ProvideAssetManager)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideRecordLocks)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideRatingService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services by triggering lazy construction.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*images.Storage](injector)
	_ = do.MustInvoke[*images.Optimizer](injector)
	_ = do.MustInvoke[*images.Manager](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*service.RecordLocks](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.RatingService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
