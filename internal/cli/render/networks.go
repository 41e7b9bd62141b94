package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rika-labs/rikadeploy/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Chain ID", "Type", "Explorer", "API Key"})
	for _, network := range result.Networks {
		if network.Error != nil {
			t.AppendRow(table.Row{network.Name, "", "", rejectedStyle.Sprintf("error: %v", network.Error), ""})
			continue
		}
		kind := "mainnet"
		if network.Testnet {
			kind = "testnet"
		}
		apiKey := pendingStyle.Sprint("missing")
		if network.HasAPIKey {
			apiKey = verifiedStyle.Sprint("set")
		}
		t.AppendRow(table.Row{network.Name, network.ChainID, kind, network.ExplorerURL, apiKey})
	}
	t.Render()
	return nil
}
