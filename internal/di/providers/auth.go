package providers

import (
	"github.com/samber/do/v2"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/config"
	"github.com/grimoireapp/grimoire-server/internal/logger"
)

// ProvideTokenService provides the PASETO token service. The signing key
// comes from configuration when set, otherwise it is loaded from (or
// generated into) the data directory so tokens survive restarts.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex := cfg.Auth.AccessTokenKeyHex
	if keyHex == "" {
		var err error
		keyHex, err = auth.LoadOrGenerateKeyHex(cfg.Assets.BasePath)
		if err != nil {
			return nil, err
		}
	}

	log.Info("Authentication key loaded", "access_token_duration", cfg.Auth.AccessTokenDuration)

	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration)
}
