package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// DeployRenderer renders orchestration results.
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer.
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// RenderPlan displays the work list before execution.
func (r *DeployRenderer) RenderPlan(result *usecase.OrchestrateResult) {
	fmt.Fprintf(r.out, "\nDeploying to %s\n", result.Network)
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for i, id := range result.Planned {
		fmt.Fprintf(r.out, "%d. ", i+1)
		color.New(color.FgCyan).Fprintf(r.out, "%s\n", id)
	}
	for _, id := range result.Skipped {
		color.New(color.FgHiBlack).Fprintf(r.out, "   %s (already completed, skipped)\n", id)
	}
	fmt.Fprintln(r.out)
}

// Render displays the final summary of a run.
func (r *DeployRenderer) Render(result *usecase.OrchestrateResult) error {
	progress := result.Progress

	fmt.Fprintln(r.out)
	color.New(color.Bold).Fprintln(r.out, "Deployment Summary")
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 70))

	if progress.Shared != nil {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Shared Contract", "Address"})
		t.AppendRows([]table.Row{
			{"Registry", progress.Shared.Registry.Hex()},
			{"QueueHandler beacon", progress.Shared.QueueHandlerBeacon.Hex()},
			{"FeeManager beacon", progress.Shared.FeeManagerBeacon.Hex()},
			{"Router", progress.Shared.Router.Hex()},
			{"Factory", progress.Shared.Factory.Hex()},
		})
		t.Render()
	}

	if len(progress.Tokens) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Token", "Address"})
		for symbol, addr := range progress.Tokens {
			t.AppendRow(table.Row{symbol, addr.Hex()})
		}
		t.SortBy([]table.SortBy{{Name: "Token", Mode: table.Asc}})
		t.Render()
	}

	if len(progress.Completed) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Vault", "Address", "QueueHandler", "FeeManager", "RewardClaimer"})
		for _, id := range progress.Completed {
			if dep, ok := progress.Deployments[id]; ok {
				t.AppendRow(table.Row{
					id,
					dep.Vault.Hex(),
					dep.QueueHandler.Hex(),
					dep.FeeManager.Hex(),
					dep.RewardClaimer.Hex(),
				})
			}
		}
		t.Render()
	}

	fmt.Fprintln(r.out)
	color.New(color.FgGreen).Fprintf(r.out, "✓ %d vault(s) completed\n", len(progress.Completed))
	if len(progress.Failed) > 0 {
		color.New(color.FgRed).Fprintf(r.out, "✗ %d vault(s) failed: %s\n",
			len(progress.Failed), strings.Join(progress.Failed, ", "))
		fmt.Fprintln(r.out, "Re-run with --resume to retry only the failed vaults.")
	}

	return nil
}
