package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dstackai/dstack/agent/consts"
	"github.com/dstackai/dstack/agent/consts/states"
	"github.com/dstackai/dstack/agent/internal/gerrors"
	"github.com/dstackai/dstack/agent/internal/log"
	"github.com/dstackai/dstack/agent/internal/models"
	"github.com/dstackai/dstack/agent/internal/ports"
	"golang.org/x/sync/errgroup"
)

// Driver launches a group on a runtime and keeps every started container
// alive with its own supervisor.
type Driver struct {
	runtime        Runtime
	pullAttempts   int
	pullDelay      time.Duration
	restartDelay   time.Duration
	checkHostPorts bool

	mu          sync.Mutex
	supervisors []*Supervisor
	running     errgroup.Group
}

type Option interface {
	apply(driver *Driver)
}

type funcDriverOpt func(driver *Driver)

func (f funcDriverOpt) apply(driver *Driver) {
	f(driver)
}

// WithPullRetry sets how many times an image pull is attempted and the pause
// between attempts.
func WithPullRetry(attempts int, delay time.Duration) Option {
	return funcDriverOpt(func(driver *Driver) {
		if attempts > 0 {
			driver.pullAttempts = attempts
		}
		driver.pullDelay = delay
	})
}

// WithRestartDelay sets the pause between a container exit and its restart.
func WithRestartDelay(delay time.Duration) Option {
	return funcDriverOpt(func(driver *Driver) {
		driver.restartDelay = delay
	})
}

// WithHostPortCheck makes the driver warn about published host ports that
// are already bound on this host.
func WithHostPortCheck(enabled bool) Option {
	return funcDriverOpt(func(driver *Driver) {
		driver.checkHostPorts = enabled
	})
}

func NewDriver(runtime Runtime, opts ...Option) *Driver {
	driver := &Driver{
		runtime:      runtime,
		pullAttempts: consts.PullAttempts,
		pullDelay:    consts.PullRetryDelay,
		restartDelay: consts.RestartDelay,
	}
	for _, opt := range opts {
		opt.apply(driver)
	}
	return driver
}

// Launch starts the containers of group one after another. A failed pull or
// start aborts the launch; containers started before it keep running.
// Containers from an earlier manifest that are not in group are left alone.
func (d *Driver) Launch(ctx context.Context, group models.Group) error {
	for _, c := range group {
		if err := d.launch(ctx, c); err != nil {
			return gerrors.Wrap(err)
		}
	}
	return nil
}

func (d *Driver) launch(ctx context.Context, c *models.Container) error {
	ctx = log.AppendArgsCtx(ctx, "container", c.Name)
	log.Info(ctx, fmt.Sprintf("starting container '%s'", c.Name), "image", c.Image)

	sv := newSupervisor(c.Name, d.runtime, d.restartDelay)
	d.mu.Lock()
	d.supervisors = append(d.supervisors, sv)
	d.mu.Unlock()

	if err := d.pullImage(ctx, c.Image); err != nil {
		sv.setState(states.Terminated)
		return err
	}

	// Make room for the new container, whatever the old one looked like.
	if err := d.runtime.Remove(ctx, c.Name); err != nil {
		log.Debug(ctx, "cleanup of previous container failed", "err", err)
	}

	// The previous container may have held these ports until now.
	if d.checkHostPorts {
		d.warnBusyPorts(ctx, c)
	}

	id, err := d.runtime.Run(ctx, c)
	if err != nil {
		sv.setState(states.Terminated)
		return gerrors.Wrapf(err, "failed to run container '%s'", c.Name)
	}
	log.Info(ctx, fmt.Sprintf("container '%s' started", c.Name), "id", id)

	sv.id.Store(id)
	sv.setState(states.Running)
	d.running.Go(func() error {
		sv.Run(ctx)
		return nil
	})
	return nil
}

func (d *Driver) pullImage(ctx context.Context, image string) error {
	for attempt := 1; ; attempt++ {
		err := d.runtime.Pull(ctx, image)
		if err == nil {
			return nil
		}
		log.Info(ctx, "image pull failed", "image", image, "err", err)
		left := d.pullAttempts - attempt
		if left <= 0 {
			return gerrors.Wrapf(err, "failed to pull %s", image)
		}
		plural := "s"
		if left == 1 {
			plural = ""
		}
		log.Info(ctx, fmt.Sprintf("could not pull %s, will retry %d more time%s", image, left, plural))
		if err := sleep(ctx, d.pullDelay); err != nil {
			return gerrors.Wrapf(err, "failed to pull %s", image)
		}
	}
}

func (d *Driver) warnBusyPorts(ctx context.Context, c *models.Container) {
	for _, p := range c.Ports {
		if vacant, err := ports.CheckHostPort(ctx, p); !vacant {
			log.Warning(ctx, "host port is already in use", "port", p.String(), "err", err)
		}
	}
}

// Supervisors returns a supervisor for every container launched so far,
// including the one whose launch failed.
func (d *Driver) Supervisors() []*Supervisor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Supervisor{}, d.supervisors...)
}

// Wait blocks until every supervisor has terminated, that is until every
// container is gone from the runtime or ctx passed to Launch is done.
func (d *Driver) Wait() error {
	return d.running.Wait()
}

func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
