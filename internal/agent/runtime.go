package agent

import (
	"context"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/internal/docker"
	"github.com/dstackai/dstack/agent/internal/dockercli"
	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/dstackai/dstack/agent/internal/models"
)

// Runtime realizes containers. The driver relies only on these operations.
// The runtime must not restart containers on its own: restarts belong to
// the keepalive supervisor.
type Runtime interface {
	// Pull fetches image.
	Pull(ctx context.Context, image string) error
	// Remove stops and force-removes the container called name, if any.
	Remove(ctx context.Context, name string) error
	// Run creates and starts c and returns the runtime-assigned id.
	Run(ctx context.Context, c *models.Container) (string, error)
	// Wait blocks until the container exits and returns its exit status.
	Wait(ctx context.Context, id string) (int64, error)
	Restart(ctx context.Context, id string) error
	// Exists reports whether the runtime still knows the container.
	Exists(ctx context.Context, id string) (bool, error)
}

var (
	_ Runtime = (*docker.Engine)(nil)
	_ Runtime = (*dockercli.Runtime)(nil)
)

// NewRuntime builds the runtime backend selected by args.
func NewRuntime(args *CLIArgs) (Runtime, error) {
	switch args.Runtime.Backend {
	case consts.RuntimeAPI, "":
		engine, err := docker.NewEngine()
		if err != nil {
			return nil, gerrors.Wrap(err)
		}
		return engine, nil
	case consts.RuntimeCLI:
		return dockercli.New(args.Runtime.DockerBinary), nil
	default:
		return nil, gerrors.Newf("unknown runtime backend: %s", args.Runtime.Backend)
	}
}
