package app

import (
	"context"

	"shorts-web/internal/apiclient"
	"shorts-web/internal/common/logging"
	"shorts-web/internal/config"
	"shorts-web/internal/drafts"
	"shorts-web/internal/kv"
	"shorts-web/internal/redis"
	"shorts-web/internal/session"
	"shorts-web/internal/upload"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	API         *apiclient.Client
	RedisClient *redis.Client
	Sessions    session.Factory
	Drafts      *drafts.Service
	Compensator upload.Compensator
	Logger      logging.Logger

	memoryStores []*kv.MemoryStore
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	// Initialize components in order of dependency
	if err := app.initializeRedis(); err != nil {
		return nil, err
	}

	if err := app.initializeAPI(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeSessions(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeDrafts(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeUploads(ctx); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

// newMemoryStore creates an in-process store whose sweeper is stopped by Cleanup.
func (app *App) newMemoryStore() (*kv.MemoryStore, error) {
	store := kv.NewMemoryStore()
	if err := store.StartSweeper(kv.DefaultSweepSchedule); err != nil {
		return nil, err
	}
	app.memoryStores = append(app.memoryStores, store)
	return store, nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	for _, store := range app.memoryStores {
		store.Stop()
	}
	app.memoryStores = nil

	if app.RedisClient != nil {
		app.RedisClient.Close()
		app.RedisClient = nil
	}
}
