package modules

import (
	"tutorhub.io/tutorhub/internal/api/handlers"
	"tutorhub.io/tutorhub/internal/api/middleware"
	"tutorhub.io/tutorhub/internal/config"
)

// JWTConfig derives token settings from the security section.
func JWTConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Security.JWTSecret),
		Issuer:     cfg.Security.Issuer,
		ExpiresIn:  cfg.Security.TokenTTL,
	}
}

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		DB:     infra.Client,
		JWTCfg: JWTConfig(cfg),
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
