package providers

import (
	"github.com/samber/do/v2"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/config"
	"github.com/grimoireapp/grimoire-server/internal/logger"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/service"
)

// ProvideRecordLocks provides the per-record lock table shared by services
// that coordinate multi-step mutations.
func ProvideRecordLocks(i do.Injector) (*service.RecordLocks, error) {
	return service.NewRecordLocks(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	assets := do.MustInvoke[*images.Manager](i)
	locks := do.MustInvoke[*service.RecordLocks](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, assets, locks, log.Logger), nil
}

// ProvideRatingService provides the rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*service.RecordLocks](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, locks, log.Logger, cfg.Ratings.TopRatedLimit), nil
}
