package devnet

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/compose-network/dex-bootstrap/configs"
	"github.com/compose-network/dex-bootstrap/internal/logger"
	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const rpcPort = "8545"

type dockerClient struct {
	cli    *client.Client
	logger *slog.Logger
}

func newDockerClient() (*dockerClient, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return &dockerClient{cli: cli, logger: logger.Named("docker_client")}, nil
}

func (c *dockerClient) Close() error {
	return c.cli.Close()
}

// ensureImage pulls imageName unless it is already present locally.
func (c *dockerClient) ensureImage(ctx context.Context, imageName string) error {
	_, err := c.cli.ImageInspect(ctx, imageName)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect image: %w", err)
	}

	c.logger.With("image", imageName).Info("pulling docker image")

	resp, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer resp.Close()

	scanner := bufio.NewScanner(resp)
	var pullError error
	for scanner.Scan() {
		line := scanner.Text()
		c.logger.Debug(line)

		var msg struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &msg); err == nil && msg.Error != "" {
			pullError = fmt.Errorf("pull failed: %s", msg.Error)
			c.logger.Error("docker pull error", "error", msg.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading pull output: %w", err)
	}

	if pullError != nil {
		return pullError
	}

	c.logger.With("image", imageName).Info("docker image pulled successfully")
	return nil
}

// start creates and starts the node container, returning its id.
func (c *dockerClient) start(ctx context.Context, cfg configs.Devnet) (string, error) {
	config, hostConfig := containerSpec(cfg)

	resp, err := c.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, cfg.ContainerName)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = c.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("failed to start container: %w", err)
	}

	return resp.ID, nil
}

// remove force-removes the named container. A missing container is not an error.
func (c *dockerClient) remove(ctx context.Context, name string) (bool, error) {
	err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})
	if err != nil {
		if errdefs.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return true, nil
}

// containerSpec runs anvil on all interfaces inside the container and
// publishes its RPC port on the host loopback only.
func containerSpec(cfg configs.Devnet) (*container.Config, *container.HostConfig) {
	port := nat.Port(rpcPort + "/tcp")

	config := &container.Config{
		Image: cfg.Image,
		// the foundry image's entrypoint is `/bin/sh -c`
		Cmd: []string{fmt.Sprintf("anvil --host 0.0.0.0 --port %s --chain-id %d", rpcPort, cfg.ChainID)},
		ExposedPorts: nat.PortSet{
			port: struct{}{},
		},
		Labels: map[string]string{"app": "dex-bootstrap"},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: strconv.Itoa(cfg.HostPort)}},
		},
	}

	return config, hostConfig
}
