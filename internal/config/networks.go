package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rika-labs/rikadeploy/internal/domain"
	"github.com/rika-labs/rikadeploy/internal/domain/config"
)

// builtinNetworks are available without a config file
func builtinNetworks() map[string]*config.Network {
	apiKey := os.Getenv("SONIC_API_KEY")
	return map[string]*config.Network{
		"sonic": {
			Name:           "sonic",
			ChainID:        146,
			RPCURL:         "https://rpc.soniclabs.com",
			ExplorerAPIURL: "https://api.sonicscan.org/api",
			ExplorerURL:    "https://sonicscan.org",
			APIKey:         apiKey,
		},
		"sonicTestnet": {
			Name:           "sonicTestnet",
			ChainID:        57054,
			RPCURL:         os.Getenv("SONIC_RPC_URL"),
			ExplorerAPIURL: "https://api-testnet.sonicscan.org/api",
			ExplorerURL:    "https://testnet.sonicscan.org",
			APIKey:         apiKey,
			Testnet:        true,
		},
	}
}

// mergeNetworks overlays file sections on the built-in networks. A file
// section replaces the built-in entry field by field where set.
func mergeNetworks(builtin map[string]*config.Network, file map[string]config.NetworkFileConfig) map[string]*config.Network {
	out := make(map[string]*config.Network, len(builtin)+len(file))
	for name, n := range builtin {
		cp := *n
		out[name] = &cp
	}

	for name, f := range file {
		n, ok := out[name]
		if !ok {
			n = &config.Network{
				Name:    name,
				Testnet: strings.Contains(strings.ToLower(name), "testnet"),
			}
			out[name] = n
		}
		if f.ChainID != 0 {
			n.ChainID = f.ChainID
		}
		if f.RPCURL != "" {
			n.RPCURL = f.RPCURL
		}
		if f.ExplorerAPIURL != "" {
			n.ExplorerAPIURL = f.ExplorerAPIURL
		}
		if f.ExplorerURL != "" {
			n.ExplorerURL = strings.TrimSuffix(f.ExplorerURL, "/")
		}
		if f.APIKey != "" {
			n.APIKey = f.APIKey
		}
		if f.Testnet != nil {
			n.Testnet = *f.Testnet
		}
	}

	return out
}

// ResolveNetwork looks up a configured network by name
func ResolveNetwork(networks map[string]*config.Network, name string) (*config.Network, error) {
	n, ok := networks[name]
	if !ok {
		names := NetworkNames(networks)
		msg := fmt.Sprintf("network '%s' is not configured", name)
		if matches := fuzzy.Find(name, names); len(matches) > 0 {
			msg += fmt.Sprintf(" (did you mean '%s'?)", matches[0].Str)
		}
		return nil, fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	}
	if n.ChainID == 0 {
		return nil, fmt.Errorf("network '%s' has no chain_id", name)
	}
	if n.RPCURL == "" {
		return nil, fmt.Errorf("network '%s' has no rpc_url (is the referenced env var set?)", name)
	}
	return n, nil
}

// NetworkNames returns the configured network names, sorted
func NetworkNames(networks map[string]*config.Network) []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
