// Package dockercli runs containers by invoking the docker command-line
// client.
package dockercli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/dstackai/dstack/agent/internal/models"
)

type Runtime struct {
	bin string
}

// New returns a runtime calling bin, which is looked up in PATH if it has
// no slash.
func New(bin string) *Runtime {
	return &Runtime{bin: bin}
}

// CommandError carries the combined output of a failed docker invocation.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := "docker " + strings.Join(e.Args, " ") + ": " + e.Err.Error()
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (r *Runtime) exec(ctx context.Context, args ...string) (string, error) {
	log.Trace(ctx, "Exec docker", "args", args)
	cmd := exec.CommandContext(ctx, r.bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", &CommandError{Args: args, Output: strings.TrimSpace(out.String()), Err: err}
	}
	return strings.TrimSpace(out.String()), nil
}

func (r *Runtime) Pull(ctx context.Context, image string) error {
	if _, err := r.exec(ctx, "pull", image); err != nil {
		return gerrors.Wrap(err)
	}
	return nil
}

// Remove kills and force-removes the container called name. Only the
// removal result is reported.
func (r *Runtime) Remove(ctx context.Context, name string) error {
	if _, err := r.exec(ctx, "kill", name); err != nil {
		log.Trace(ctx, "Kill before remove failed", "container", name, "err", err)
	}
	if _, err := r.exec(ctx, "rm", "-f", name); err != nil {
		return gerrors.Wrap(err)
	}
	return nil
}

func (r *Runtime) Run(ctx context.Context, c *models.Container) (string, error) {
	id, err := r.exec(ctx, RunArgs(c)...)
	if err != nil {
		return "", gerrors.Wrap(err)
	}
	return id, nil
}

// RunArgs renders the detached "docker run" invocation for c.
func RunArgs(c *models.Container) []string {
	args := []string{"run", "-d", "--name", c.Name}
	args = appendFlag(args, "--hostname", c.Hostname)
	args = appendFlag(args, "--workdir", c.WorkingDir)
	args = appendFlag(args, "--net", c.NetworkMode())
	for _, p := range c.PortSpecs() {
		args = append(args, "-p", p)
	}
	for _, m := range c.Mounts {
		args = append(args, "-v", m)
	}
	for _, e := range c.Env {
		args = append(args, "-e", e)
	}
	args = append(args, c.Image)
	return append(args, c.Command...)
}

func appendFlag(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

func (r *Runtime) Wait(ctx context.Context, id string) (int64, error) {
	out, err := r.exec(ctx, "wait", id)
	if err != nil {
		return 0, gerrors.Wrap(err)
	}
	status, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, gerrors.Newf("unexpected docker wait output: %q", out)
	}
	return status, nil
}

func (r *Runtime) Restart(ctx context.Context, id string) error {
	if _, err := r.exec(ctx, "restart", id); err != nil {
		return gerrors.Wrap(err)
	}
	return nil
}

// Exists treats any failed inspect as a missing container. Failing to start
// the docker binary at all is an error.
func (r *Runtime) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.exec(ctx, "inspect", id)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return false, nil
	}
	return false, gerrors.Wrap(err)
}
