package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/domain/models"
)

// StatusRenderer renders the persisted ledger state for a network.
type StatusRenderer struct {
	out io.Writer
}

// NewStatusRenderer creates a new status renderer.
func NewStatusRenderer(out io.Writer) *StatusRenderer {
	return &StatusRenderer{out: out}
}

// Render displays per-vault status from the ledger without touching the
// chain.
func (r *StatusRenderer) Render(network *config.NetworkConfig, progress *models.DeploymentProgress) error {
	if progress == nil {
		fmt.Fprintf(r.out, "No deployment record for network %s.\n", network.Name)
		return nil
	}

	fmt.Fprintf(r.out, "Network %s (last update %s)\n", progress.Network, progress.UpdatedAt.Format("2006-01-02 15:04:05"))
	if progress.Shared != nil {
		fmt.Fprintf(r.out, "Shared infrastructure: registry %s\n", progress.Shared.Registry.Hex())
	} else {
		fmt.Fprintln(r.out, "Shared infrastructure: not deployed")
	}

	failed := make(map[string]bool, len(progress.Failed))
	for _, id := range progress.Failed {
		failed[id] = true
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Vault", "Status", "Address"})
	for _, vault := range network.Vaults {
		switch {
		case !vault.Enabled:
			t.AppendRow(table.Row{vault.ID, color.HiBlackString("disabled"), ""})
		case progress.IsCompleted(vault.ID):
			addr := ""
			if dep, ok := progress.Deployments[vault.ID]; ok {
				addr = dep.Vault.Hex()
			}
			t.AppendRow(table.Row{vault.ID, color.GreenString("completed"), addr})
		case failed[vault.ID]:
			t.AppendRow(table.Row{vault.ID, color.RedString("failed"), ""})
		default:
			t.AppendRow(table.Row{vault.ID, color.YellowString("pending"), ""})
		}
	}
	t.Render()

	return nil
}
