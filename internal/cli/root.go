package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vaultsmith-org/vaultsmith/internal/adapters/progress"
	"github.com/vaultsmith-org/vaultsmith/internal/app"
	"github.com/vaultsmith-org/vaultsmith/internal/config"
	"github.com/vaultsmith-org/vaultsmith/internal/usecase"
)

// contextKey is the type for context keys.
type contextKey string

const appKey contextKey = "app"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vaultsmith",
		Short: "Multi-vault deployment orchestrator",
		Long: `Vaultsmith provisions shared vault infrastructure and deploys
independently configured vault contract sets against a liquidity-book
style DEX, resumably and with per-vault failure isolation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			// Optional .env for the deployer key and RPC overrides.
			_ = godotenv.Load()

			v := config.SetupViper()
			bindGlobalFlags(v, cmd)

			var sink usecase.ProgressSink
			if v.GetBool("non_interactive") {
				sink = progress.NewNopSink()
			} else {
				sink = progress.NewSpinnerSink()
			}

			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Network configuration file (YAML)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")

	rootCmd.AddCommand(NewDeployCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds changed command flags into viper.
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	set := func(key string, f *pflag.Flag) {
		if f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	set("config", cmd.Flag("config"))
	set("debug", cmd.Flag("debug"))
	set("non_interactive", cmd.Flag("non-interactive"))
}

// getApp retrieves the app instance from the command context.
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}
	return a, nil
}

// loadNetwork loads and returns the network document named by --config.
func loadNetwork(a *app.App) (*config.NetworkConfig, error) {
	if a.Config.ConfigPath == "" {
		return nil, fmt.Errorf("no network configuration given (use --config)")
	}
	return config.LoadNetworkConfig(a.Config.ConfigPath)
}
