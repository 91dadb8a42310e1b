package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vaultsmith-org/vaultsmith/internal/cli/render"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted deployment state for a network",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			network, err := loadNetwork(a)
			if err != nil {
				return err
			}

			progress, err := a.Ledger.Load(cmd.Context(), network.Name)
			if err != nil {
				return err
			}

			return render.NewStatusRenderer(os.Stdout).Render(network, progress)
		},
	}
}
