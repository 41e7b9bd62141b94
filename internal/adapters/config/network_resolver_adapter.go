package config

import (
	"context"

	"github.com/rika-labs/rikadeploy/internal/config"
	domainconfig "github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NetworkResolverAdapter resolves networks from the loaded runtime configuration
type NetworkResolverAdapter struct {
	networks map[string]*domainconfig.Network
}

// NewNetworkResolverAdapter creates a new adapter
func NewNetworkResolverAdapter(cfg *domainconfig.RuntimeConfig) *NetworkResolverAdapter {
	return &NetworkResolverAdapter{
		networks: cfg.Networks,
	}
}

// GetNetworks returns all configured network names
func (a *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return config.NetworkNames(a.networks)
}

// ResolveNetwork resolves a network name to its configuration
func (a *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, networkName string) (*domainconfig.Network, error) {
	return config.ResolveNetwork(a.networks, networkName)
}

// Ensure the adapter implements the interface
var _ usecase.NetworkResolver = (*NetworkResolverAdapter)(nil)
