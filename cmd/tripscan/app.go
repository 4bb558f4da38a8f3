package main

import (
	"fmt"

	"github.com/ngmaloney/tripscan/internal/cities"
	"github.com/ngmaloney/tripscan/internal/config"
	"github.com/ngmaloney/tripscan/internal/database"
	"github.com/ngmaloney/tripscan/internal/identity"
	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/tripapi"
	"go.uber.org/zap"
)

// app holds what the commands share for one invocation
type app struct {
	cfgPath   string
	cfg       *config.Config
	logger    *zap.Logger
	store     *database.StateStore
	identity  *identity.Provider
	client    *tripapi.BackendClient
	directory *cities.Directory
}

func (a *app) open(configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfgPath = configPath
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.GetLogFile(), debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.logger = logger

	// Without a store the identity is regenerated per call; that is
	// degraded, not fatal.
	store, err := database.OpenStateStore(database.DBPath(cfg.Storage.DataDir))
	if err != nil {
		logger.Warn("client state store unavailable", zap.Error(err))
	} else {
		a.store = store
	}

	if a.store != nil {
		a.identity = identity.NewProvider(a.store, logger)
	} else {
		a.identity = identity.NewProvider(nil, logger)
	}

	a.client = tripapi.NewBackendClient(cfg.API.BaseURL, cfg.GetAPITimeout(), cfg.API.UserAgent)
	a.directory = cities.NewDirectory()
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing client state store", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
