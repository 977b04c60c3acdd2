package providers

import (
	"github.com/samber/do/v2"

	"github.com/grimoireapp/grimoire-server/internal/config"
	"github.com/grimoireapp/grimoire-server/internal/logger"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
)

// ProvideImageStorage provides the cover asset filesystem storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return images.NewStorage(cfg.Assets.BasePath)
}

// ProvideImageOptimizer provides the cover optimization pipeline.
func ProvideImageOptimizer(i do.Injector) (*images.Optimizer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return images.NewOptimizer(cfg.Assets.TargetWidth), nil
}

// ProvideAssetManager provides the cover asset lifecycle manager.
func ProvideAssetManager(i do.Injector) (*images.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storage := do.MustInvoke[*images.Storage](i)
	optimizer := do.MustInvoke[*images.Optimizer](i)

	return images.NewManager(storage, optimizer, cfg.Server.PublicURL, log.Logger), nil
}
