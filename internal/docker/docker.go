package docker

import (
	"context"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/dstackai/dstack/agent/internal/labels"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/dstackai/dstack/agent/internal/ports"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// Client is the part of the Docker Engine API the agent needs.
// *client.Client satisfies it.
type Client interface {
	ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *specs.Platform, containerName string) (container.ContainerCreateCreatedBody, error)
	ContainerStart(ctx context.Context, containerID string, options types.ContainerStartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.ContainerWaitOKBody, <-chan error)
	ContainerRestart(ctx context.Context, containerID string, timeout *time.Duration) error
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerRemove(ctx context.Context, containerID string, options types.ContainerRemoveOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
}

// containerConfig maps c onto the create request. Restarts are left to the
// keepalive supervisor, so the daemon's restart policy is always "no".
func containerConfig(c *models.Container) (*container.Config, *container.HostConfig) {
	config := &container.Config{
		Image:      c.Image,
		Cmd:        c.Command,
		Hostname:   c.Hostname,
		WorkingDir: c.WorkingDir,
		Env:        c.Env,
		Labels:     labels.Combine(labels.Main(), labels.FromContainer(c)),
	}
	hostConfig := &container.HostConfig{
		Binds:         c.Mounts,
		NetworkMode:   container.NetworkMode(c.NetworkMode()),
		RestartPolicy: container.RestartPolicy{Name: "no"},
	}
	if len(c.Ports) > 0 {
		config.ExposedPorts = ports.ExposedPorts(c.Ports)
		hostConfig.PortBindings = ports.BindPorts(c.Ports)
	}
	return config, hostConfig
}
