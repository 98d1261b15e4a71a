package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/contracts"
	"github.com/compose-network/dex-bootstrap/internal/dex"
	"github.com/compose-network/dex-bootstrap/internal/txflow"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "run",
	Short: "Deploy a factory, router and token pair, then seed the pair with liquidity",
	RunE: func(cmd *cobra.Command, args []string) error {
		slog.Info("starting bootstrap. Validating config", slog.String("rpc_url", configs.Values.Bootstrap.RPCURL))

		if err := configs.Values.Bootstrap.Validate(); err != nil {
			return err
		}

		slog.Info("config validation successful. Starting bootstrap...")

		result, err := run(cmd.Context(), configs.Values.Bootstrap)
		if result != nil {
			if reportErr := WriteReport(cmd.OutOrStdout(), result); reportErr != nil {
				slog.With("err", reportErr.Error()).Error("failed to write report")
			}
		}
		if err != nil {
			return fmt.Errorf("error occurred during bootstrap: %w", err)
		}

		slog.Info("bootstrap completed successfully")

		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Validate and print the bootstrap step plan without touching the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := ParamsFromConfig(configs.Values.Bootstrap)
		if err != nil {
			return err
		}

		return printPlan(cmd.OutOrStdout(), NewOrchestrator(Dependencies{}, params).Plan())
	},
}

func printPlan(w io.Writer, plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	_, err := io.WriteString(w, plan.String())
	return err
}

func run(ctx context.Context, cfg configs.Bootstrap) (*Result, error) {
	params, err := ParamsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	signer, err := client.AddSigner(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	slog.
		With("chain_id", client.NetworkID().String()).
		With("signer", signer.Address.Hex()).
		Info("connected to chain")

	artifacts, err := contracts.LoadArtifacts(cfg.ArtifactsDir, requiredArtifacts(params)...)
	if err != nil {
		return nil, err
	}

	backend := client.Backend()
	orchestrator := NewOrchestrator(Dependencies{
		Network:    Network{ChainID: client.NetworkID(), Endpoint: client.Endpoint()},
		Signer:     signer,
		Artifacts:  artifacts,
		Deployer:   contracts.NewDeployer(client, params.Gas, params.TxTimeout),
		Transactor: txflow.NewTransactor(client, params.Gas, params.TxTimeout),
		Reader:     dex.NewReader(backend, signer.Address),
		Bind: func(name contracts.ContractName, address common.Address, contractABI abi.ABI) *contracts.Handle {
			return contracts.NewHandle(name, address, contractABI, backend)
		},
	}, params)

	return orchestrator.Run(ctx)
}

func requiredArtifacts(params Params) []contracts.ContractName {
	names := []contracts.ContractName{
		contracts.ContractNameFactory,
		contracts.ContractNameRouter,
		contracts.ContractNameToken,
		contracts.ContractNamePair,
	}
	if params.usesWrappedNative() {
		names = append(names, contracts.ContractNameWrappedNative)
	}
	return names
}
