package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	docker "github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// Engine runs containers through the Docker Engine API.
type Engine struct {
	client Client
}

type Option interface {
	apply(engine *Engine)
}

type funcEngineOpt func(engine *Engine)

func (f funcEngineOpt) apply(engine *Engine) {
	f(engine)
}

func WithCustomClient(client Client) Option {
	return funcEngineOpt(func(engine *Engine) {
		engine.client = client
	})
}

// NewEngine connects to the daemon configured by the DOCKER_* environment.
// The connection is lazy: an unreachable daemon shows up on the first call.
func NewEngine(opts ...Option) (*Engine, error) {
	engine := &Engine{}
	for _, opt := range opts {
		opt.apply(engine)
	}
	if engine.client == nil {
		client, err := docker.NewClientWithOpts(docker.FromEnv, docker.WithAPIVersionNegotiation())
		if err != nil {
			return nil, gerrors.Wrap(err)
		}
		engine.client = client
	}
	return engine, nil
}

// Pull fetches image. Pull errors are reported inside the progress stream,
// so the stream is read to the end.
func (e *Engine) Pull(ctx context.Context, image string) error {
	if image == "" {
		return gerrors.New("given image value is empty")
	}
	log.Trace(ctx, "Start pull image", "image", image)
	reader, err := e.client.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return gerrors.Wrap(err)
	}
	defer func() { _ = reader.Close() }()

	progress := log.Writer(ctx, logrus.TraceLevel)
	defer func() { _ = progress.Close() }()
	if err = jsonmessage.DisplayJSONMessagesStream(reader, progress, 0, false, nil); err != nil {
		return gerrors.Wrap(err)
	}
	log.Trace(ctx, "End pull image", "image", image)
	return nil
}

// Remove kills and force-removes the container called name.
func (e *Engine) Remove(ctx context.Context, name string) error {
	if err := e.client.ContainerKill(ctx, name, "KILL"); err != nil {
		log.Trace(ctx, "Kill before remove failed", "container", name, "err", err)
	}
	err := e.client.ContainerRemove(ctx, name, types.ContainerRemoveOptions{Force: true})
	if err != nil {
		return gerrors.Wrap(err)
	}
	return nil
}

// Run creates and starts c detached.
func (e *Engine) Run(ctx context.Context, c *models.Container) (string, error) {
	config, hostConfig := containerConfig(c)
	log.Trace(ctx, "Creating docker container", "image", c.Image, "cmd", c.Command, "mounts", c.Mounts, "ports", c.PortSpecs())
	resp, err := e.client.ContainerCreate(ctx, config, hostConfig, nil, nil, c.Name)
	if err != nil {
		if c.Hostname != "" && c.NetworkFrom != "" && strings.Contains(err.Error(), "conflicting options") {
			log.Error(ctx, "docker daemon rejects a hostname for a container joining another network namespace",
				"container", c.Name, "hostname", c.Hostname, "network", c.NetworkMode())
			return "", gerrors.Wrapf(err, "hostname '%s' is not accepted with network mode '%s'", c.Hostname, c.NetworkMode())
		}
		return "", gerrors.Wrap(err)
	}
	for _, warning := range resp.Warnings {
		log.Warning(ctx, "docker create", "container", c.Name, "warning", warning)
	}
	if err := e.client.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		if rmErr := e.client.ContainerRemove(ctx, resp.ID, types.ContainerRemoveOptions{Force: true}); rmErr != nil {
			log.Debug(ctx, "cleanup of unstarted container failed", "container", c.Name, "err", rmErr)
		}
		return "", gerrors.Wrapf(err, "failed to start container")
	}
	return resp.ID, nil
}

// Wait blocks until the container is not running and returns its exit code.
func (e *Engine) Wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := e.client.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return 0, gerrors.Wrap(err)
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return status.StatusCode, gerrors.Newf("wait failed: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	}
}

func (e *Engine) Restart(ctx context.Context, id string) error {
	if err := e.client.ContainerRestart(ctx, id, nil); err != nil {
		return gerrors.Wrap(err)
	}
	return nil
}

// Exists reports whether the daemon still knows the container. A removed
// container is not an error.
func (e *Engine) Exists(ctx context.Context, id string) (bool, error) {
	_, err := e.client.ContainerInspect(ctx, id)
	if err == nil {
		return true, nil
	}
	if docker.IsErrNotFound(err) {
		return false, nil
	}
	return false, gerrors.Wrap(fmt.Errorf("inspect %s: %w", id, err))
}
