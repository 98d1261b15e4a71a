package devnet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/compose-network/dex-bootstrap/internal/chain"
	"github.com/compose-network/dex-bootstrap/internal/logger"
)

const (
	readyTimeout  = 60 * time.Second
	readyInterval = 500 * time.Millisecond
)

// Endpoint is the RPC URL the devnet node is reachable at from the host.
func Endpoint(cfg configs.Devnet) string {
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.HostPort)
}

// Up replaces any previous devnet container with a fresh one and waits until
// its RPC endpoint answers with the configured chain id.
func Up(ctx context.Context, cfg configs.Devnet) (string, error) {
	log := logger.Named("devnet").With("container", cfg.ContainerName)

	docker, err := newDockerClient()
	if err != nil {
		return "", err
	}
	defer docker.Close()

	if err := docker.ensureImage(ctx, cfg.Image); err != nil {
		return "", err
	}

	if removed, err := docker.remove(ctx, cfg.ContainerName); err != nil {
		return "", err
	} else if removed {
		log.Info("removed previous devnet container")
	}

	id, err := docker.start(ctx, cfg)
	if err != nil {
		return "", err
	}
	log.With("id", id).Info("devnet container started")

	endpoint := Endpoint(cfg)
	if err := waitReady(ctx, log, endpoint, int64(cfg.ChainID)); err != nil {
		return "", err
	}

	log.With("endpoint", endpoint).Info("devnet is ready")

	return endpoint, nil
}

// Down removes the devnet container.
func Down(ctx context.Context, cfg configs.Devnet) error {
	log := logger.Named("devnet").With("container", cfg.ContainerName)

	docker, err := newDockerClient()
	if err != nil {
		return err
	}
	defer docker.Close()

	removed, err := docker.remove(ctx, cfg.ContainerName)
	if err != nil {
		return err
	}

	if removed {
		log.Info("devnet container removed")
	} else {
		log.Info("no devnet container to remove")
	}

	return nil
}

func waitReady(ctx context.Context, log *slog.Logger, endpoint string, chainID int64) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		client, err := chain.Dial(ctx, endpoint)
		if err == nil {
			got := client.NetworkID()
			client.Close()
			if got.Int64() != chainID {
				return fmt.Errorf("devnet at %s reports chain id %s, expected %d", endpoint, got, chainID)
			}
			return nil
		}
		lastErr = err
		log.With("err", err.Error()).Debug("devnet not ready yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("devnet at %s not ready after %s: %w", endpoint, readyTimeout, lastErr)
		case <-ticker.C:
		}
	}
}
