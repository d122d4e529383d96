package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	coreConfig "github.com/tenderworks/pipeline/pkg/pipeline/core/config"
)

// ConnectionResolver routes a named storage connection to the provider
// matching its configured type.
type ConnectionResolver struct {
	providers map[string]StorageProvider
	cfg       *coreConfig.Config
}

// ResolverParams defines the dependencies for NewConnectionResolver.
type ResolverParams struct {
	fx.In
	Providers []StorageProvider `group:"storage_providers"`
	Cfg       *coreConfig.Config
}

// NewConnectionResolver creates a ConnectionResolver from all registered
// StorageProviders.
func NewConnectionResolver(p ResolverParams) *ConnectionResolver {
	providerMap := make(map[string]StorageProvider)
	for _, provider := range p.Providers {
		providerMap[provider.Type()] = provider
	}
	return &ConnectionResolver{
		providers: providerMap,
		cfg:       p.Cfg,
	}
}

// ResolveStorageConnection resolves a StorageConnection instance by name.
func (r *ConnectionResolver) ResolveStorageConnection(_ context.Context, name string) (StorageConnection, error) {
	storageCfg, err := DecodeConnectionConfig(r.cfg, name)
	if err != nil {
		return nil, err
	}

	provider, ok := r.providers[storageCfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", storageCfg.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, storageCfg.Type, err)
	}
	return conn, nil
}

var _ StorageConnectionResolver = (*ConnectionResolver)(nil)
