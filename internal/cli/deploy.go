package cli

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/vaultsmith-org/vaultsmith/internal/cli/render"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// NewDeployCmd creates the deploy command.
func NewDeployCmd() *cobra.Command {
	var (
		resume       bool
		dryRun       bool
		vaultIDs     []string
		feeRecipient string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the configured vaults to a network",
		Long: `Deploy provisions the shared infrastructure (once per network),
resolves all referenced tokens and pairs, and deploys every enabled
vault. Progress is persisted after each milestone; re-run with --resume
to skip completed work and retry failed vaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			network, err := loadNetwork(a)
			if err != nil {
				return err
			}

			var feeOverride common.Address
			if feeRecipient != "" {
				if !common.IsHexAddress(feeRecipient) {
					return fmt.Errorf("--fee-recipient: malformed address %q", feeRecipient)
				}
				feeOverride = common.HexToAddress(feeRecipient)
			}

			if !dryRun && !resume && !network.Ephemeral && !a.Config.NonInteractive {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Deploy %d vault(s) to %s", len(network.EnabledVaults()), network.Name),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					return fmt.Errorf("aborted")
				}
			}

			result, err := a.Orchestrator.Run(cmd.Context(), usecase.OrchestrateParams{
				Network:      network,
				Resume:       resume,
				VaultIDs:     vaultIDs,
				FeeRecipient: feeOverride,
				DryRun:       dryRun,
			})
			if stopper, ok := a.Sink.(interface{ Stop() }); ok {
				stopper.Stop()
			}
			if err != nil {
				return err
			}

			renderer := render.NewDeployRenderer(os.Stdout)
			if dryRun {
				renderer.RenderPlan(result)
				return nil
			}
			if err := renderer.Render(result); err != nil {
				return err
			}

			if len(result.Progress.Failed) > 0 {
				return fmt.Errorf("%d vault(s) failed", len(result.Progress.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the persisted ledger, retrying failed vaults only")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print the plan without deploying")
	cmd.Flags().StringSliceVar(&vaultIDs, "vaults", nil, "Restrict the run to these vault ids")
	cmd.Flags().StringVar(&feeRecipient, "fee-recipient", "", "Override every vault's configured fee recipient")

	return cmd
}
