package app

import (
	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/config"
	"shorts-web/internal/crypto"
	"shorts-web/internal/drafts"
	"shorts-web/internal/kv"
	"shorts-web/internal/session"
)

func (app *App) initializeAPI() error {
	client, err := apiclient.New(app.Config.APIURL,
		apiclient.WithTimeout(app.Config.APITimeout),
		apiclient.WithObjectStorageHosts(app.Config.ObjectStorageHosts...),
	)
	if err != nil {
		return err
	}

	app.API = client
	app.Logger.Info("Backend API configured",
		logging.String("url", client.BaseURL()),
		logging.Duration("timeout", app.Config.APITimeout))
	return nil
}

func (app *App) cookieOptions() session.CookieOptions {
	return session.CookieOptions{
		TTL:       app.Config.CookieTTL,
		CDNSuffix: app.Config.CookieCDNSuffix,
	}
}

// initializeSessions selects the Token Store strategy.
func (app *App) initializeSessions() error {
	opts := app.cookieOptions()

	switch app.Config.TokenStore {
	case config.TokenStoreCookie:
		sealer, err := crypto.NewSealer(app.Config.SessionSecret)
		if err != nil {
			return err
		}
		app.Sessions = session.NewCookieFactory(sealer, opts)

	case config.TokenStoreRedis:
		if app.RedisClient == nil {
			return errors.ConfigError("TOKEN_STORE=redis requires a Redis connection")
		}
		app.Sessions = session.NewKVFactory(kv.NewRedisStore(app.RedisClient, session.KeyPrefix), opts)

	case config.TokenStoreMemory:
		store, err := app.newMemoryStore()
		if err != nil {
			return err
		}
		app.Sessions = session.NewKVFactory(store, opts)
		app.Logger.Warn("Token store is in memory; sessions are lost on restart and not shared between instances")

	default:
		return errors.ConfigError("unknown token store " + app.Config.TokenStore)
	}

	app.Logger.Info("Token store initialized", logging.String("strategy", app.Config.TokenStore))
	return nil
}

func (app *App) initializeDrafts() error {
	var store kv.Store

	switch app.Config.DraftStore {
	case config.DraftStoreRedis:
		if app.RedisClient == nil {
			return errors.ConfigError("DRAFT_STORE=redis requires a Redis connection")
		}
		store = kv.NewRedisStore(app.RedisClient, drafts.KeyPrefix)
	default:
		memory, err := app.newMemoryStore()
		if err != nil {
			return err
		}
		store = memory
	}

	app.Drafts = drafts.NewService(store, app.Config.DraftTTL)
	app.Logger.Info("Draft store initialized",
		logging.String("backend", app.Config.DraftStore),
		logging.Duration("ttl", app.Config.DraftTTL))
	return nil
}
