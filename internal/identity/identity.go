// Package identity manages the client-generated user identifier.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ngmaloney/tripscan/internal/logging"
	"github.com/ngmaloney/tripscan/internal/models"
	"go.uber.org/zap"
)

// StorageKey is the client state key holding the identifier
const StorageKey = "user_id"

// Store is the persistent client storage the identifier lives in
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Provider hands out the viewing user's identifier
type Provider struct {
	store  Store
	logger *zap.Logger
	newID  func() string
}

// NewProvider creates a provider over store. A nil store is allowed and
// means storage is unavailable.
func NewProvider(store Store, logger *zap.Logger) *Provider {
	return &Provider{
		store:  store,
		logger: logging.OrNop(logger),
		newID:  func() string { return uuid.NewString() },
	}
}

// GetOrCreateID returns the stored identifier, creating and storing one
// on first use. When storage is unavailable a fresh identifier is
// returned on every call and nothing is persisted.
func (p *Provider) GetOrCreateID() string {
	if p.store == nil {
		p.logger.Warn("client storage unavailable, identifier will not persist")
		return p.newID()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, ok, err := p.store.Get(ctx, StorageKey)
	if err != nil {
		p.logger.Warn("reading stored identifier failed", zap.Error(err))
		return p.newID()
	}
	if ok && id != "" {
		return id
	}

	id = p.newID()
	if err := p.store.Set(ctx, StorageKey, id); err != nil {
		p.logger.Warn("storing identifier failed", zap.Error(err))
		return id
	}
	p.logger.Info("created user identifier", zap.String("user_id", id))
	return id
}

// Current returns the viewing user. Call it once per session and pass
// the result to the components that need it.
func (p *Provider) Current() models.User {
	return models.User{ID: p.GetOrCreateID(), Name: models.CurrentUserName}
}

// Reset forgets the stored identifier so the next call creates a new one
func (p *Provider) Reset(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.Delete(ctx, StorageKey)
}
