package devnet

import (
	"fmt"
	"log/slog"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var CMD = &cobra.Command{
	Use:   "devnet",
	Short: "Manage a disposable local chain to bootstrap against",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start an anvil container and wait for its RPC endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configs.Values.Devnet.Validate(); err != nil {
			return err
		}

		slog.Info("starting devnet", slog.String("image", configs.Values.Devnet.Image))

		endpoint, err := Up(cmd.Context(), configs.Values.Devnet)
		if err != nil {
			return fmt.Errorf("error occurred starting devnet: %w", err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), endpoint)
		return err
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Remove the devnet container",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configs.Values.Devnet.ContainerName == "" {
			return fmt.Errorf("devnet.container-name is required")
		}

		if err := Down(cmd.Context(), configs.Values.Devnet); err != nil {
			return fmt.Errorf("error occurred stopping devnet: %w", err)
		}

		return nil
	},
}

func init() {
	flags := CMD.PersistentFlags()
	flags.String("image", "ghcr.io/foundry-rs/foundry:latest", "Docker image providing anvil")
	flags.String("container-name", "dex-bootstrap-anvil", "Name of the devnet container")
	flags.Int("host-port", 8545, "Host port the RPC endpoint is published on")
	flags.Int("chain-id", 31337, "Chain id of the devnet")

	for flagName, viperKey := range map[string]string{
		"image":          "devnet.image",
		"container-name": "devnet.container-name",
		"host-port":      "devnet.host-port",
		"chain-id":       "devnet.chain-id",
	} {
		if err := viper.BindPFlag(viperKey, flags.Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	CMD.AddCommand(upCmd)
	CMD.AddCommand(downCmd)
}
